package asana

type AsanaResponse[T any] struct {
	Data     []T       `json:"data"`
	NextPage *NextPage `json:"next_page"`
}

type NextPage struct {
	Offset string `json:"offset"`
	Path   string `json:"path"`
	URI    string `json:"uri"`
}

type AsanaUser struct {
	Gid   string `json:"gid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AsanaSection struct {
	Gid  string `json:"gid"`
	Name string `json:"name"`
}

type AsanaProjectRef struct {
	Gid  string `json:"gid"`
	Name string `json:"name"`
}

type AsanaEnumValue struct {
	Gid  string `json:"gid"`
	Name string `json:"name"`
}

type AsanaCustomField struct {
	Gid       string          `json:"gid"`
	Name      string          `json:"name"`
	EnumValue *AsanaEnumValue `json:"enum_value"`
}

type AsanaTask struct {
	Gid          string             `json:"gid"`
	Name         string             `json:"name"`
	Completed    bool               `json:"completed"`
	CompletedAt  *string            `json:"completed_at"`
	CreatedAt    string             `json:"created_at"`
	DueOn        *string            `json:"due_on"`
	Assignee     *AsanaUser         `json:"assignee"`
	Followers    []AsanaUser        `json:"followers"`
	Projects     []AsanaProjectRef  `json:"projects"`
	CustomFields []AsanaCustomField `json:"custom_fields"`
}

type AsanaDetailError struct {
	Message string `json:"message"`
	Help    string `json:"help"`
}

type AsanaErrors struct {
	Errors []AsanaDetailError `json:"errors"`
}
