package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorrell-dev/sidekick/pkg/types"
)

// storeUnderTest runs the same contract checks against both backends.
func storeUnderTest(t *testing.T, name string, open func(t *testing.T) Store) {
	t.Run(name+"/round_trip", func(t *testing.T) {
		store := open(t)

		sess := types.NewSession("round-trip", types.ChatContext{
			ActiveFile: &types.FileRef{Path: "src/app.ts", Language: "typescript"},
			Selection:  "const x = 1",
		})
		sess.Title = "a title"
		sess.Append(types.NewMessage(types.RoleUser, "first"))
		msg := types.NewMessage(types.RoleAssistant, "second")
		msg.Metadata = &types.MessageMetadata{Model: "model-a", TotalTokens: 42, Confidence: 0.7}
		sess.Append(msg)

		require.NoError(t, store.Save(sess))

		loaded, err := store.Load("round-trip")
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, sess.ID, loaded.ID)
		assert.Equal(t, sess.Title, loaded.Title)
		require.Len(t, loaded.Messages, 2)
		assert.Equal(t, sess.Messages[0].ID, loaded.Messages[0].ID)
		assert.Equal(t, sess.Messages[1].Content, loaded.Messages[1].Content)
		assert.Equal(t, "model-a", loaded.Messages[1].Metadata.Model)
		require.NotNil(t, loaded.Context.ActiveFile)
		assert.Equal(t, "src/app.ts", loaded.Context.ActiveFile.Path)
		assert.Equal(t, "const x = 1", loaded.Context.Selection)
		assert.WithinDuration(t, sess.UpdatedAt, loaded.UpdatedAt, time.Second)
	})

	t.Run(name+"/load_missing", func(t *testing.T) {
		store := open(t)
		loaded, err := store.Load("no-such-session")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run(name+"/list_and_delete", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.Save(types.NewSession("one", types.ChatContext{})))
		require.NoError(t, store.Save(types.NewSession("two", types.ChatContext{})))

		ids, err := store.ListSessionIDs()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"one", "two"}, ids)

		require.NoError(t, store.Delete("one"))
		ids, err = store.ListSessionIDs()
		require.NoError(t, err)
		assert.Equal(t, []string{"two"}, ids)

		// Deleting a missing session is a no-op.
		assert.NoError(t, store.Delete("one"))
	})

	t.Run(name+"/save_overwrites", func(t *testing.T) {
		store := open(t)
		sess := types.NewSession("overwrite", types.ChatContext{})
		require.NoError(t, store.Save(sess))

		sess.Append(types.NewMessage(types.RoleUser, "updated"))
		require.NoError(t, store.Save(sess))

		loaded, err := store.Load("overwrite")
		require.NoError(t, err)
		require.Len(t, loaded.Messages, 1)
	})
}

func TestFileStore(t *testing.T) {
	storeUnderTest(t, "file", func(t *testing.T) Store {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		return store
	})
}

func TestSQLiteStore(t *testing.T) {
	storeUnderTest(t, "sqlite", func(t *testing.T) Store {
		store, err := NewSQLiteStore(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})
}
