package builtin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/tool"
	"github.com/polka-codes/agentflow/tool/builtin"
)

type fakeFileSystem struct {
	files map[string]string
}

func newFakeFileSystem() *fakeFileSystem { return &fakeFileSystem{files: map[string]string{}} }

func (f *fakeFileSystem) ReadFile(ctx context.Context, path string, includeIgnored bool) (string, error) {
	content, ok := f.files[path]
	if !ok {
		return "", errors.New("not found")
	}
	return content, nil
}

func (f *fakeFileSystem) ReadBinaryFile(ctx context.Context, path string) ([]byte, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(content), nil
}

func (f *fakeFileSystem) WriteFile(ctx context.Context, path, content string) error {
	f.files[path] = content
	return nil
}

func (f *fakeFileSystem) ReplaceInFile(ctx context.Context, path string, replacements []provider.Replacement) error {
	content, ok := f.files[path]
	if !ok {
		return errors.New("not found")
	}
	for _, r := range replacements {
		content = replaceAll(content, r.Search, r.Replace)
	}
	f.files[path] = content
	return nil
}

func replaceAll(s, search, replacement string) string {
	out := ""
	for {
		i := indexOf(s, search)
		if i < 0 {
			return out + s
		}
		out += s[:i] + replacement
		s = s[i+len(search):]
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func (f *fakeFileSystem) SearchFiles(ctx context.Context, path, pattern string, contextLines int) ([]provider.SearchMatch, error) {
	return nil, nil
}

func (f *fakeFileSystem) ListFiles(ctx context.Context, path string, recursive bool, maxCount int) ([]string, error) {
	names := make([]string, 0, len(f.files))
	for name := range f.files {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeFileSystem) RemoveFile(ctx context.Context, path string) error {
	if _, ok := f.files[path]; !ok {
		return errors.New("not found")
	}
	delete(f.files, path)
	return nil
}

func (f *fakeFileSystem) RenameFile(ctx context.Context, from, to string) error {
	content, ok := f.files[from]
	if !ok {
		return errors.New("not found")
	}
	delete(f.files, from)
	f.files[to] = content
	return nil
}

func catalogWithFileSystem(fs provider.FileSystemProvider) (*tool.Catalog, *provider.Bundle) {
	c := tool.NewCatalog()
	c.Register(builtin.ReadFile())
	c.Register(builtin.WriteToFile())
	c.Register(builtin.ReplaceInFile())
	c.Register(builtin.ListFiles())
	c.Register(builtin.ReadBinaryFile())
	c.Register(builtin.RemoveFile())
	c.Register(builtin.RenameFile())
	return c, &provider.Bundle{FileSystem: fs}
}

func TestFiles_WriteThenReadRoundTrip(t *testing.T) {
	c, bundle := catalogWithFileSystem(newFakeFileSystem())
	ctx := context.Background()

	result, err := c.Invoke(ctx, "writeToFile", bundle, map[string]any{"path": "a.txt", "content": "hello"})
	require.NoError(t, err)
	require.True(t, result.Success)

	result, err = c.Invoke(ctx, "readFile", bundle, map[string]any{"path": "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Message.Value)
}

func TestFiles_ReplaceInFileAppliesSubstitutions(t *testing.T) {
	fs := newFakeFileSystem()
	fs.files["a.txt"] = "foo bar foo"
	c, bundle := catalogWithFileSystem(fs)
	ctx := context.Background()

	result, err := c.Invoke(ctx, "replaceInFile", bundle, map[string]any{
		"path": "a.txt",
		"replacements": []any{
			map[string]any{"search": "foo", "replace": "baz"},
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "baz bar baz", fs.files["a.txt"])
}

func TestFiles_ReadFileMissingReturnsErrorResult(t *testing.T) {
	c, bundle := catalogWithFileSystem(newFakeFileSystem())
	result, err := c.Invoke(context.Background(), "readFile", bundle, map[string]any{"path": "missing.txt"})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestFiles_RenameFileMovesContent(t *testing.T) {
	fs := newFakeFileSystem()
	fs.files["old.txt"] = "content"
	c, bundle := catalogWithFileSystem(fs)

	result, err := c.Invoke(context.Background(), "renameFile", bundle, map[string]any{"from": "old.txt", "to": "new.txt"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "content", fs.files["new.txt"])
	_, stillThere := fs.files["old.txt"]
	assert.False(t, stillThere)
}

func TestFiles_RemoveFileDeletesEntry(t *testing.T) {
	fs := newFakeFileSystem()
	fs.files["gone.txt"] = "bye"
	c, bundle := catalogWithFileSystem(fs)

	result, err := c.Invoke(context.Background(), "removeFile", bundle, map[string]any{"path": "gone.txt"})
	require.NoError(t, err)
	require.True(t, result.Success)
	_, ok := fs.files["gone.txt"]
	assert.False(t, ok)
}
