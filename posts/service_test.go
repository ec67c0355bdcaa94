package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/auth"
)

type fixture struct {
	users *auth.MemoryUserStore
	store *MemoryStore
	svc   PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := auth.NewMemoryUserStore()
	store := NewMemoryStore(users)
	return &fixture{users: users, store: store, svc: NewPostService(store, auth.NewAdminCheck(users))}
}

func (f *fixture) user(t *testing.T, role auth.Role) *auth.User {
	t.Helper()
	u := &auth.User{
		ID:             gofakeit.UUID(),
		Email:          gofakeit.Email(),
		HashedPassword: "hash",
		FullName:       gofakeit.Name(),
		Role:           role,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) post(t *testing.T, author *auth.User, tags ...string) *Post {
	t.Helper()
	p, err := f.svc.Create(context.Background(), author.ID, PostRequest{
		Title: gofakeit.LetterN(12),
		Text:  gofakeit.LoremIpsumSentence(20),
		Tags:  tags,
	})
	require.NoError(t, err)
	return p
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		page, size         string
		wantPage, wantSize int
	}{
		{"", "", 1, 5},
		{"3", "10", 3, 10},
		{"abc", "x", 1, 5},
		{"0", "-4", 1, 5},
		{"-1", "2", 1, 2},
		{"2.5", "99999999999999999999", 1, 5},
	}
	for _, tc := range cases {
		page, size := ParsePage(tc.page, tc.size)
		assert.Equal(t, tc.wantPage, page, "page %q", tc.page)
		assert.Equal(t, tc.wantSize, size, "pageSize %q", tc.size)
	}
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)

	var created []*Post
	for i := 0; i < 12; i++ {
		created = append(created, f.post(t, author))
	}

	for _, size := range []int{1, 5, 7, 12, 20} {
		seen := 0
		for page := 1; page <= 13; page++ {
			resp, err := f.svc.List(ctx, page, size)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(resp.Posts), size)
			assert.EqualValues(t, 12, resp.TotalCount)
			for i, p := range resp.Posts {
				assert.Equal(t, created[(page-1)*size+i].ID, p.ID)
				require.NotNil(t, p.User)
				assert.Equal(t, author.ID, p.User.ID)
				assert.Empty(t, p.User.HashedPassword)
			}
			seen += len(resp.Posts)
		}
		assert.Equal(t, 12, seen)
	}
}

func TestListBeyondLastPage(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)
	for i := 0; i < 3; i++ {
		f.post(t, author)
	}

	resp, err := f.svc.List(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.NotNil(t, resp.Posts)
	assert.Empty(t, resp.Posts)
	assert.EqualValues(t, 3, resp.TotalCount)
}

func TestListEmptyStore(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.List(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []Post{}, resp.Posts)
	assert.Zero(t, resp.TotalCount)
}

func TestLastTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)

	tags, err := f.svc.LastTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{}, tags)

	f.post(t, author, "old1", "old2")
	f.post(t, author, "a", "b")
	f.post(t, author)
	f.post(t, author, "c", "d", "e", "f")

	tags, err = f.svc.LastTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "e", "f", "a"}, tags)
}

func TestLastTagsOnlySamplesFiveNewestPosts(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)

	f.post(t, author, "ancient")
	for i := 0; i < 5; i++ {
		f.post(t, author)
	}

	tags, err := f.svc.LastTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestLastTagsKeepsDuplicates(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)
	f.post(t, author, "go", "go")
	f.post(t, author, "go")

	tags, err := f.svc.LastTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "go", "go"}, tags)
}

func TestCreateThenGetOneRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)
	image := "/uploads/cover.png"

	created, err := f.svc.Create(ctx, author.ID, PostRequest{
		Title:    "Round trip",
		Text:     "Some *markdown* text here",
		Tags:     TagList{"go", "web"},
		ImageURL: &image,
	})
	require.NoError(t, err)
	assert.Zero(t, created.ViewsCount)

	got, err := f.svc.GetOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Round trip", got.Title)
	assert.Equal(t, "Some *markdown* text here", got.Text)
	assert.Equal(t, []string{"go", "web"}, got.Tags)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, image, *got.ImageURL)
	assert.EqualValues(t, 1, got.ViewsCount)
	assert.Equal(t, author.ID, got.User.ID)
	assert.Contains(t, got.TextHTML, "<em>markdown</em>")
}

func TestGetOneMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetOne(context.Background(), "nope")
	require.Error(t, err)
	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, "Post was not found", appErr.Message)
	assert.Equal(t, 404, appErr.StatusCode())
}

func TestConcurrentGetOneCountsEveryView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.post(t, f.user(t, auth.RoleUser))

	const readers = 64
	var wg sync.WaitGroup
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			_, err := f.svc.GetOne(ctx, p.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, readers, stored.ViewsCount)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)

	_, err := f.svc.Create(context.Background(), author.ID, PostRequest{Title: "Hi", Text: "short"})
	require.True(t, apperror.IsValidationError(err))

	appErr, _ := apperror.FromError(err)
	var fields []string
	for _, fe := range appErr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"title", "text"}, fields)
}

func TestTitleAndTagsKeepSpecialCharacters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)
	title := "Don't panic: Tom & Jerry"
	tags := TagList{"c++", "r&d", "a<b", `say "hi"`}

	created, err := f.svc.Create(ctx, author.ID, PostRequest{Title: title, Text: "Body long enough to pass", Tags: tags})
	require.NoError(t, err)

	got, err := f.svc.GetOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, []string(tags), got.Tags)

	// Repeated updates must not escape the text again.
	for i := 0; i < 3; i++ {
		got, err = f.svc.Update(ctx, author.ID, created.ID, PostRequest{Title: got.Title, Text: got.Text, Tags: got.Tags})
		require.NoError(t, err)
	}
	assert.Equal(t, title, got.Title)
	assert.Equal(t, []string(tags), got.Tags)

	last, err := f.svc.LastTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c++", "r&d", "a<b", `say "hi"`}, last)
}

func TestCreateTrimsAndDropsBlankTags(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)

	p, err := f.svc.Create(context.Background(), author.ID, PostRequest{
		Title: "Tagged",
		Text:  "Body long enough to pass",
		Tags:  TagList{" go ", "", "   "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, p.Tags)
}

func TestCreateForUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), "ghost", PostRequest{Title: "Title", Text: "Body long enough"})
	assert.True(t, apperror.IsForbiddenError(err))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)
	editor := f.user(t, auth.RoleUser)
	p := f.post(t, author, "x")

	updated, err := f.svc.Update(ctx, editor.ID, p.ID, PostRequest{Title: "New title", Text: "New body text", Tags: TagList{"y"}})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, []string{"y"}, updated.Tags)
	assert.Equal(t, editor.ID, updated.User.ID)

	_, err = f.svc.Update(ctx, editor.ID, "missing", PostRequest{Title: "New title", Text: "New body text"})
	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, "Post not found", appErr.Message)
}

func TestDeletePermissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, auth.RoleUser)
	stranger := f.user(t, auth.RoleUser)
	admin := f.user(t, auth.RoleAdmin)

	mine := f.post(t, owner)
	other := f.post(t, owner)

	err := f.svc.Delete(ctx, stranger.ID, mine.ID)
	assert.True(t, apperror.IsForbiddenError(err))

	require.NoError(t, f.svc.Delete(ctx, owner.ID, mine.ID))
	require.NoError(t, f.svc.Delete(ctx, admin.ID, other.ID))

	err = f.svc.Delete(ctx, owner.ID, mine.ID)
	assert.True(t, apperror.IsNotFound(err))

	resp, err := f.svc.List(ctx, 1, 5)
	require.NoError(t, err)
	assert.Empty(t, resp.Posts)
}

func TestTagListDecoding(t *testing.T) {
	cases := map[string][]string{
		`["a"," b ",""]`: {"a", "b"},
		`"go, web,,db"`:  {"go", "web", "db"},
		`null`:           {},
		`[]`:             {},
	}
	for raw, want := range cases {
		var tags TagList
		require.NoError(t, tags.UnmarshalJSON([]byte(raw)), raw)
		assert.Equal(t, want, []string(tags), raw)
	}

	for _, bad := range []string{`42`, `[1,2]`, `{"a":1}`} {
		var tags TagList
		assert.Error(t, tags.UnmarshalJSON([]byte(bad)), fmt.Sprintf("input %s", bad))
	}
}

func TestUpdateByUnknownIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.post(t, f.user(t, auth.RoleUser), "keep")

	_, err := f.svc.Update(ctx, "deleted-account", p.ID, PostRequest{Title: "New title", Text: "New body text"})
	require.True(t, apperror.IsForbiddenError(err))
	appErr, _ := apperror.FromError(err)
	assert.Equal(t, "No access", appErr.Message)

	stored, err := f.store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, stored.Title)
	assert.Equal(t, []string{"keep"}, stored.Tags)
}

func TestMissingTagsBecomeEmptyList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, auth.RoleUser)

	for _, body := range []string{
		`{"title":"No tags","text":"Body long enough"}`,
		`{"title":"No tags","text":"Body long enough","tags":null}`,
	} {
		var req PostRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req))

		created, err := f.svc.Create(ctx, author.ID, req)
		require.NoError(t, err)
		require.NotNil(t, created.Tags, body)
		assert.Equal(t, []string{}, created.Tags, body)

		updated, err := f.svc.Update(ctx, author.ID, created.ID, req)
		require.NoError(t, err)
		require.NotNil(t, updated.Tags, body)
		assert.Equal(t, []string{}, updated.Tags, body)
	}

	// The tags column is NOT NULL, so the request handed to the store never carries nil.
	cleaned := cleanRequest(PostRequest{Title: "No tags", Text: "Body long enough"})
	require.NotNil(t, cleaned.Tags)
	assert.Empty(t, cleaned.Tags)
}
