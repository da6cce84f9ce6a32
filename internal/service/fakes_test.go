package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sakif/quoter/internal/apperror"
	"github.com/sakif/quoter/internal/model"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. Using fakes (not a
// mock framework) keeps tests easy to read: you can see exactly what each
// method does. Each fake has an err field to simulate a database failure.

type fakeQuoteRepo struct {
	mu     sync.Mutex
	quotes []model.Quote
	err    error
}

func (f *fakeQuoteRepo) ListQuotes(context.Context) ([]model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Quote{}, f.quotes...), nil
}

func (f *fakeQuoteRepo) GetQuote(_ context.Context, id int64) (*model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, q := range f.quotes {
		if q.ID == id {
			found := q
			return &found, nil
		}
	}
	return nil, apperror.NotFound("quote", id)
}

func (f *fakeQuoteRepo) InsertQuote(_ context.Context, text, attribution string) (*model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	q := model.Quote{
		ID:          int64(len(f.quotes) + 1),
		Text:        text,
		Attribution: attribution,
		CreatedAt:   time.Now().UTC(),
	}
	f.quotes = append(f.quotes, q)
	return &q, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	quotes   *fakeQuoteRepo
	users    *fakeUserRepo
	comments []model.Comment
	err      error
}

func (f *fakeCommentRepo) ListComments(_ context.Context, quoteID int64) ([]model.CommentView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []model.CommentView{}
	for _, c := range f.comments {
		if c.QuoteID != quoteID {
			continue
		}
		cv := model.CommentView{Comment: c, LocalTime: c.CreatedAt.Local()}
		if c.UserID != nil && f.users != nil {
			if u := f.users.byID(*c.UserID); u != nil {
				name := u.Name
				cv.AuthorName = &name
			}
		}
		out = append(out, cv)
	}
	return out, nil
}

func (f *fakeCommentRepo) InsertComment(ctx context.Context, text string, quoteID int64, authorID *int64) (*model.Comment, error) {
	if _, err := f.quotes.GetQuote(ctx, quoteID); err != nil {
		return nil, err
	}
	if authorID != nil && (f.users == nil || f.users.byID(*authorID) == nil) {
		return nil, apperror.NotFound("user", *authorID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c := model.Comment{
		ID:        int64(len(f.comments) + 1),
		QuoteID:   quoteID,
		UserID:    authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	f.comments = append(f.comments, c)
	return &c, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  []model.User
	err    error
	// beforeCreate, when set, runs just before CreateUser checks for a
	// duplicate; tests use it to sneak in a competing sign-up.
	beforeCreate func()
}

func (f *fakeUserRepo) byID(id int64) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].ID == id {
			return &f.users[i]
		}
	}
	return nil
}

func (f *fakeUserRepo) FindUserByName(_ context.Context, name string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Name, name) {
			found := u
			return &found, nil
		}
	}
	return nil, apperror.NotFound("user", name)
}

func (f *fakeUserRepo) CreateUser(_ context.Context, name, passwordHash string) (*model.User, error) {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Name, name) {
			return nil, apperror.Conflict("user", name)
		}
	}
	u := model.User{
		ID:           int64(len(f.users) + 1),
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	f.users = append(f.users, u)
	return &u, nil
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// testLogger only prints errors, so passing tests stay quiet.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
