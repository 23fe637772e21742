package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/forkful/forkful/internal/api"
	"github.com/forkful/forkful/internal/favorite"
	"github.com/forkful/forkful/internal/identity"
	"github.com/forkful/forkful/internal/oauth"
	"github.com/forkful/forkful/internal/session"
)

// fakeUserRepo is an in-memory identity.Repository with the store-enforced
// email uniqueness the handlers rely on.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*identity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*identity.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *identity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return identity.ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = identity.RoleUser
	}
	u.CreatedAt = time.Now()
	clone := *u
	f.users[u.ID] = &clone
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (f *fakeUserRepo) FindByEmailAndProvider(_ context.Context, email string, provider identity.Provider) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) && u.Provider == provider {
			clone := *u
			return &clone, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (f *fakeUserRepo) FindByUserName(_ context.Context, userName string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.UserName != nil && *u.UserName == userName {
			clone := *u
			return &clone, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (f *fakeUserRepo) UpdateFields(_ context.Context, id uuid.UUID, fields identity.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	if fields.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*fields.Email))
		for otherID, other := range f.users {
			if otherID != id && strings.EqualFold(other.Email, email) {
				return identity.ErrEmailTaken
			}
		}
		u.Email = email
	}
	if fields.UserName != nil {
		v := *fields.UserName
		u.UserName = &v
	}
	if fields.FirstName != nil {
		v := *fields.FirstName
		u.FirstName = &v
	}
	if fields.LastName != nil {
		v := *fields.LastName
		u.LastName = &v
	}
	if fields.PasswordHash != nil {
		v := *fields.PasswordHash
		u.PasswordHash = &v
	}
	if fields.AvatarURI != nil {
		v := *fields.AvatarURI
		u.AvatarURI = &v
	}
	if fields.Verified != nil {
		u.Verified = *fields.Verified
	}
	return nil
}

// fakeFavoriteRepo is an in-memory favorite.Repository.
type fakeFavoriteRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]map[string]struct{}
	fail bool
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{rows: make(map[uuid.UUID]map[string]struct{})}
}

var errStoreDown = errors.New("store unavailable")

func (f *fakeFavoriteRepo) Find(_ context.Context, userID uuid.UUID, recipeID string) (*favorite.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return nil, errStoreDown
	}
	if _, ok := f.rows[userID][recipeID]; !ok {
		return nil, favorite.ErrNotFound
	}
	return &favorite.Favorite{UserID: userID, RecipeID: recipeID}, nil
}

func (f *fakeFavoriteRepo) Create(_ context.Context, fav *favorite.Favorite) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errStoreDown
	}
	if _, ok := f.rows[fav.UserID][fav.RecipeID]; ok {
		return favorite.ErrAlreadyExists
	}
	if f.rows[fav.UserID] == nil {
		f.rows[fav.UserID] = make(map[string]struct{})
	}
	f.rows[fav.UserID][fav.RecipeID] = struct{}{}
	return nil
}

func (f *fakeFavoriteRepo) Delete(_ context.Context, userID uuid.UUID, recipeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errStoreDown
	}
	if _, ok := f.rows[userID][recipeID]; !ok {
		return favorite.ErrNotFound
	}
	delete(f.rows[userID], recipeID)
	return nil
}

func (f *fakeFavoriteRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return nil, errStoreDown
	}
	ids := []string{}
	for id := range f.rows[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

// fakeBlobStore implements blob.Store in memory and counts calls so tests
// can assert no blob traffic happened for rejected uploads.
type fakeBlobStore struct {
	mu        sync.Mutex
	base      string
	objects   map[string][]byte
	puts      int
	deletes   int
	deleteErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		base:    "https://test-bucket.s3.amazonaws.com/",
		objects: make(map[string][]byte),
	}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts++
	f.objects[key] = data
	return f.base + key, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) Head(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeBlobStore) Key(uri string) (string, bool) {
	if !strings.HasPrefix(uri, f.base) {
		return "", false
	}
	return strings.TrimPrefix(uri, f.base), true
}

// testEnv bundles the test server and its fakes.
type testEnv struct {
	server    *httptest.Server
	users     *fakeUserRepo
	favorites *fakeFavoriteRepo
	blobs     *fakeBlobStore
	verifier  *identity.Verifier
	issuer    *session.Issuer
}

func newTestEnv(t *testing.T, providers ...oauth.Provider) *testEnv {
	t.Helper()

	users := newFakeUserRepo()
	favorites := newFakeFavoriteRepo()
	blobs := newFakeBlobStore()
	issuer := session.NewIssuer([]byte("test-secret"), time.Hour)
	verifier := identity.NewVerifier(users, 4)

	router := api.NewRouter(api.RouterDeps{
		Verifier:     verifier,
		Reconciler:   identity.NewReconciler(users),
		Projector:    identity.NewProjector(users),
		Profiles:     identity.NewService(users, blobs, 4),
		Favorites:    favorite.NewSynchronizer(favorites),
		Blobs:        blobs,
		AvatarFolder: "avatars",
		Issuer:       issuer,
		Providers:    providers,
		DBPinger:     nil,
		Version:      "0.1.0-test",
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{
		server:    server,
		users:     users,
		favorites: favorites,
		blobs:     blobs,
		verifier:  verifier,
		issuer:    issuer,
	}
}

// seedUser registers a credential user and returns its id with a valid
// session token.
func (e *testEnv) seedUser(t *testing.T, email string) (uuid.UUID, string) {
	t.Helper()

	u, err := e.verifier.Register(context.Background(), identity.RegisterParams{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "secret123",
	})
	require.NoError(t, err)

	token, err := e.issuer.Issue(u.ID)
	require.NoError(t, err)

	return u.ID, token
}

// doJSON performs a JSON request against the test server.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

// decodeData decodes the envelope's data field into out and closes the body.
func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}

// decodeError decodes the envelope's error code and closes the body.
func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotNil(t, envelope.Error)
	return envelope.Error.Code
}
