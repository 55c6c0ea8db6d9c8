package recordcache_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/recordcache"
)

func TestKeyPrefix(t *testing.T) {
	t.Parallel()

	t.Run("embeds table and schema fingerprint", func(t *testing.T) {
		t.Parallel()

		s := postsSchema()
		require.True(t, strings.HasPrefix(s.KeyPrefix(), "recordcache-1/posts/v="))
		require.True(t, strings.HasSuffix(s.KeyPrefix(), "/"))
	})

	t.Run("identical schemas share a prefix", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, postsSchema().KeyPrefix(), postsSchema().KeyPrefix())
	})

	t.Run("column rename changes the prefix", func(t *testing.T) {
		t.Parallel()

		a := recordcache.NewSchema("post", "posts", []recordcache.Column{
			{Name: "id", Type: recordcache.ColumnInt},
			{Name: "title", Type: recordcache.ColumnString},
		})
		b := recordcache.NewSchema("post", "posts", []recordcache.Column{
			{Name: "id", Type: recordcache.ColumnInt},
			{Name: "name", Type: recordcache.ColumnString},
		})
		require.NotEqual(t, a.KeyPrefix(), b.KeyPrefix())
	})

	t.Run("column retype changes the prefix", func(t *testing.T) {
		t.Parallel()

		a := recordcache.NewSchema("post", "posts", []recordcache.Column{
			{Name: "id", Type: recordcache.ColumnInt},
		})
		b := recordcache.NewSchema("post", "posts", []recordcache.Column{
			{Name: "id", Type: recordcache.ColumnString},
		})
		require.NotEqual(t, a.KeyPrefix(), b.KeyPrefix())
	})

	t.Run("column reorder changes the prefix", func(t *testing.T) {
		t.Parallel()

		a := recordcache.NewSchema("post", "posts", []recordcache.Column{
			{Name: "id", Type: recordcache.ColumnInt},
			{Name: "title", Type: recordcache.ColumnString},
		})
		b := recordcache.NewSchema("post", "posts", []recordcache.Column{
			{Name: "title", Type: recordcache.ColumnString},
			{Name: "id", Type: recordcache.ColumnInt},
		})
		require.NotEqual(t, a.KeyPrefix(), b.KeyPrefix())
	})
}

func TestKeyFor(t *testing.T) {
	t.Parallel()

	s := postsSchema()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		pairs := []recordcache.Pair{{Attr: "id", Value: 42}}
		require.Equal(t, s.KeyFor(pairs), s.KeyFor(pairs))
	})

	t.Run("integer values render verbatim", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, s.KeyPrefix()+"id=42", s.KeyForID(42))
	})

	t.Run("string values are quoted and lowercased", func(t *testing.T) {
		t.Parallel()

		key := s.KeyFor([]recordcache.Pair{{Attr: "title", Value: "Hello"}})
		require.Equal(t, s.KeyPrefix()+"title='hello'", key)
		require.Equal(t, key, s.KeyFor([]recordcache.Pair{{Attr: "title", Value: "HELLO"}}))
	})

	t.Run("nil and empty string collapse to the null token", func(t *testing.T) {
		t.Parallel()

		nilKey := s.KeyFor([]recordcache.Pair{{Attr: "title", Value: nil}})
		emptyKey := s.KeyFor([]recordcache.Pair{{Attr: "title", Value: ""}})
		require.Equal(t, s.KeyPrefix()+"title=null", nilKey)
		require.Equal(t, nilKey, emptyKey)
	})

	t.Run("false is not blank", func(t *testing.T) {
		t.Parallel()

		flags := recordcache.NewSchema("flag", "flags", []recordcache.Column{
			{Name: "id", Type: recordcache.ColumnInt},
			{Name: "enabled", Type: recordcache.ColumnBool},
		})
		key := flags.KeyFor([]recordcache.Pair{{Attr: "enabled", Value: false}})
		require.Equal(t, flags.KeyPrefix()+"enabled=0", key)
	})

	t.Run("booleans render as one and zero", func(t *testing.T) {
		t.Parallel()

		flags := recordcache.NewSchema("flag", "flags", []recordcache.Column{
			{Name: "id", Type: recordcache.ColumnInt},
			{Name: "enabled", Type: recordcache.ColumnBool},
		})
		require.Equal(t, flags.KeyPrefix()+"enabled=1",
			flags.KeyFor([]recordcache.Pair{{Attr: "enabled", Value: true}}))
		require.Equal(t, flags.KeyPrefix()+"enabled=1",
			flags.KeyFor([]recordcache.Pair{{Attr: "enabled", Value: "t"}}))
		require.Equal(t, flags.KeyPrefix()+"enabled=0",
			flags.KeyFor([]recordcache.Pair{{Attr: "enabled", Value: "f"}}))
	})

	t.Run("time values render in UTC", func(t *testing.T) {
		t.Parallel()

		events := recordcache.NewSchema("event", "events", []recordcache.Column{
			{Name: "id", Type: recordcache.ColumnInt},
			{Name: "created_at", Type: recordcache.ColumnTime},
		})
		loc := time.FixedZone("UTC+2", 2*60*60)
		at := time.Date(2024, 3, 1, 14, 30, 0, 0, loc)
		key := events.KeyFor([]recordcache.Pair{{Attr: "created_at", Value: at}})
		require.Equal(t, events.KeyPrefix()+"created_at='2024-03-01 12:30:00'", key)
	})

	t.Run("multiple pairs join with slashes", func(t *testing.T) {
		t.Parallel()

		key := s.KeyFor([]recordcache.Pair{
			{Attr: "blog_id", Value: 7},
			{Attr: "id", Value: 42},
		})
		require.Equal(t, s.KeyPrefix()+"blog_id=7/id=42", key)
	})

	t.Run("oversized body collapses to md5", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("x", 300)
		key := s.KeyFor([]recordcache.Pair{{Attr: "title", Value: long}})
		body := strings.TrimPrefix(key, s.KeyPrefix())
		require.Len(t, body, 32)
		require.Equal(t, key, s.KeyFor([]recordcache.Pair{{Attr: "title", Value: long}}))
	})

	t.Run("whitespace collapses to md5", func(t *testing.T) {
		t.Parallel()

		key := s.KeyFor([]recordcache.Pair{{Attr: "title", Value: "hello world"}})
		body := strings.TrimPrefix(key, s.KeyPrefix())
		require.Len(t, body, 32)
		require.NotContains(t, key, " ")
	})

	t.Run("keys never exceed the length cap", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("y", 1000)
		key := s.KeyFor([]recordcache.Pair{{Attr: "title", Value: long}})
		require.LessOrEqual(t, len(key), 250)
	})
}

func TestKeyForIDs(t *testing.T) {
	t.Parallel()

	t.Run("fans out to one key per id", func(t *testing.T) {
		t.Parallel()

		s := postsSchema()
		keys := s.KeyForIDs([]any{1, 2, 3})
		require.Equal(t, []string{
			s.KeyForID(1),
			s.KeyForID(2),
			s.KeyForID(3),
		}, keys)
	})
}
