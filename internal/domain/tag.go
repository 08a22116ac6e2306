package domain

// SubTag is a second-level classification under a main tag.
type SubTag struct {
	ID   string
	Name string
}

// MainTag is a top-level classification with its sub-tags.
type MainTag struct {
	ID      string
	Name    string
	SubTags []SubTag
}
