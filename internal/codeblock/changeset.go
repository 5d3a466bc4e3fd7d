package codeblock

// ChangeSet is the ordered set of blocks extracted from one response.
// Setting an existing path replaces its content and keeps its position.
type ChangeSet struct {
	order   []string
	content map[string]string
}

// NewChangeSet returns an empty ChangeSet
func NewChangeSet() *ChangeSet {
	return &ChangeSet{content: make(map[string]string)}
}

// Set records content for path
func (cs *ChangeSet) Set(path, content string) {
	if _, ok := cs.content[path]; !ok {
		cs.order = append(cs.order, path)
	}
	cs.content[path] = content
}

// Get returns the content recorded for path
func (cs *ChangeSet) Get(path string) (string, bool) {
	c, ok := cs.content[path]
	return c, ok
}

// Len returns the number of distinct paths
func (cs *ChangeSet) Len() int {
	return len(cs.order)
}

// Paths returns the paths in first-seen order
func (cs *ChangeSet) Paths() []string {
	return append([]string(nil), cs.order...)
}

// Blocks returns the blocks in first-seen order
func (cs *ChangeSet) Blocks() []Block {
	blocks := make([]Block, 0, len(cs.order))
	for _, p := range cs.order {
		blocks = append(blocks, Block{Path: p, Content: cs.content[p]})
	}
	return blocks
}
