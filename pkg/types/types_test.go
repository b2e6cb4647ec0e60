package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimPreservesFirstMessage(t *testing.T) {
	s := NewSession("trim-test", ChatContext{})
	for i := 0; i < 60; i++ {
		s.Append(NewMessage(RoleUser, "msg"))
	}
	first := s.Messages[0].ID
	last := s.Messages[59].ID

	s.Trim(50)

	assert.Len(t, s.Messages, 50)
	assert.Equal(t, first, s.Messages[0].ID)
	assert.Equal(t, last, s.Messages[49].ID)
}

func TestTrimNoopWhenUnderLimit(t *testing.T) {
	s := NewSession("trim-noop", ChatContext{})
	for i := 0; i < 10; i++ {
		s.Append(NewMessage(RoleUser, "msg"))
	}
	s.Trim(50)
	assert.Len(t, s.Messages, 10)

	// A degenerate max must not drop the anchor message.
	s.Trim(1)
	assert.Len(t, s.Messages, 10)
}

func TestContextMergeOverwritesOnlyProvidedFields(t *testing.T) {
	base := ChatContext{
		ActiveFile: &FileRef{Path: "main.go"},
		Selection:  "func main()",
	}
	merged := base.Merge(ChatContext{Selection: "fmt.Println"})

	assert.Equal(t, "main.go", merged.ActiveFile.Path)
	assert.Equal(t, "fmt.Println", merged.Selection)

	merged = base.Merge(ChatContext{ActiveFile: &FileRef{Path: "other.go"}})
	assert.Equal(t, "other.go", merged.ActiveFile.Path)
	assert.Equal(t, "func main()", merged.Selection)
}

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystem} {
		if !ValidRole(r) {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if ValidRole(Role("tool")) {
		t.Error("expected unknown role to be invalid")
	}
}
