package api_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkful/forkful/internal/identity"
)

// uploadAvatar posts a multipart avatar upload with an explicit part
// content type.
func uploadAvatar(t *testing.T, env *testEnv, token, filename, contentType string, data []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/avatar/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.seedUser(t, "ada@example.com")

	resp := uploadAvatar(t, env, token, "photo.png", "image/png", []byte("png-bytes"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		URL      string `json:"url"`
		Degraded bool   `json:"degraded"`
	}
	decodeData(t, resp, &data)
	assert.True(t, strings.HasPrefix(data.URL, env.blobs.base+"avatars/"), data.URL)
	assert.True(t, strings.HasSuffix(data.URL, "-photo.png"), data.URL)
	assert.False(t, data.Degraded)
	assert.Equal(t, 1, env.blobs.puts)

	u, err := env.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u.AvatarURI)
	assert.Equal(t, data.URL, *u.AvatarURI)
}

func TestUploadAvatar_DisallowedType(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "ada@example.com")

	resp := uploadAvatar(t, env, token, "anim.gif", "image/gif", []byte("gif-bytes"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp))

	// Rejection happens before the blob store is touched.
	assert.Zero(t, env.blobs.puts)
	assert.Zero(t, env.blobs.deletes)
}

func TestUploadAvatar_ReplacesOldBlob(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "ada@example.com")

	resp := uploadAvatar(t, env, token, "first.png", "image/png", []byte("one"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = uploadAvatar(t, env, token, "second.png", "image/png", []byte("two"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, 2, env.blobs.puts)
	assert.Equal(t, 1, env.blobs.deletes, "old blob is deleted after replacement")
	assert.Len(t, env.blobs.objects, 1)
}

func TestUploadAvatar_DegradedWhenOldBlobSticks(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "ada@example.com")

	resp := uploadAvatar(t, env, token, "first.png", "image/png", []byte("one"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	env.blobs.deleteErr = errStoreDown

	resp = uploadAvatar(t, env, token, "second.png", "image/png", []byte("two"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		URL      string `json:"url"`
		Degraded bool   `json:"degraded"`
	}
	decodeData(t, resp, &data)
	assert.True(t, data.Degraded, "profile update succeeds even when cleanup fails")
}

func TestUploadAvatar_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	resp := uploadAvatar(t, env, "", "photo.png", "image/png", []byte("png-bytes"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp))
	assert.Zero(t, env.blobs.puts)
}

func TestDeleteAvatar(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.seedUser(t, "ada@example.com")

	resp := uploadAvatar(t, env, token, "photo.png", "image/png", []byte("png-bytes"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodPost, "/avatar/delete", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Empty(t, env.blobs.objects)
	u, err := env.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	if u.AvatarURI != nil {
		assert.Empty(t, *u.AvatarURI)
	}
}

func TestDeleteAvatar_NoAvatar(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "ada@example.com")

	resp := env.doJSON(t, http.MethodPost, "/avatar/delete", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp))
}

func TestDeleteAvatar_ExternalURI(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.seedUser(t, "ada@example.com")

	external := "https://avatars.githubusercontent.com/u/1"
	require.NoError(t, env.users.UpdateFields(context.Background(), id, identity.Fields{AvatarURI: &external}))

	resp := env.doJSON(t, http.MethodPost, "/avatar/delete", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp))
	assert.Zero(t, env.blobs.deletes)
}
