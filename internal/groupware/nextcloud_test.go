package groupware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respondOCS(t *testing.T, w http.ResponseWriter, statuscode int, data any) {
	t.Helper()

	payload := map[string]any{
		"ocs": map[string]any{
			"meta": map[string]any{"status": "ok", "statuscode": statuscode, "message": "OK"},
			"data": data,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(payload))
}

func TestNextcloudCreateFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, foldersPath, r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "true", r.Header.Get("OCS-APIRequest"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Franchises", r.Form.Get("mountpoint"))

		respondOCS(t, w, 100, map[string]any{"id": 7})
	}))
	defer srv.Close()

	folders := NewNextcloud(srv.URL, "admin", "secret")

	id, err := folders.CreateFolder(context.Background(), "Franchises")

	require.NoError(t, err)
	assert.Equal(t, 7, id)
}

func TestNextcloudFindFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, foldersPath, r.URL.Path)

		respondOCS(t, w, 100, map[string]any{
			"1": map[string]any{"id": 1, "mount_point": "Franchises"},
			"4": map[string]any{"id": 4, "mount_point": "east"},
		})
	}))
	defer srv.Close()

	folders := NewNextcloud(srv.URL, "admin", "secret")

	id, found, err := folders.FindFolder(context.Background(), "east")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, id)

	_, found, err = folders.FindFolder(context.Background(), "west")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNextcloudFindFolderEmptySet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondOCS(t, w, 100, []any{})
	}))
	defer srv.Close()

	folders := NewNextcloud(srv.URL, "admin", "secret")

	_, found, err := folders.FindFolder(context.Background(), "Franchises")

	require.NoError(t, err)
	assert.False(t, found)
}

func TestNextcloudGrantAccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, foldersPath+"/3/groups", r.URL.Path)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "east", r.Form.Get("group"))

		respondOCS(t, w, 100, []any{})
	}))
	defer srv.Close()

	folders := NewNextcloud(srv.URL, "admin", "secret")

	require.NoError(t, folders.GrantAccess(context.Background(), 3, "east"))
}

func TestNextcloudSetPermission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, foldersPath+"/3/groups/everybody", r.URL.Path)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "1", r.Form.Get("permissions"))

		respondOCS(t, w, 100, []any{})
	}))
	defer srv.Close()

	folders := NewNextcloud(srv.URL, "admin", "secret")

	require.NoError(t, folders.SetPermission(context.Background(), 3, "everybody", PermissionRead))
}

func TestNextcloudRejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"ocs": map[string]any{
				"meta": map[string]any{"status": "failure", "statuscode": 997, "message": "Unauthorised"},
				"data": []any{},
			},
		}
		assert.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	defer srv.Close()

	folders := NewNextcloud(srv.URL, "admin", "wrong")

	_, err := folders.CreateFolder(context.Background(), "Franchises")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "Unauthorised")
}

func TestNextcloudUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	folders := NewNextcloud(srv.URL, "admin", "secret")

	_, err := folders.CreateFolder(context.Background(), "Franchises")
	assert.ErrorIs(t, err, ErrUnavailable)

	srv.Close()

	_, _, err = folders.FindFolder(context.Background(), "Franchises")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPermissionBits(t *testing.T) {
	assert.Equal(t, Permission(1), PermissionRead)
	assert.Equal(t, Permission(2), PermissionUpdate)
	assert.Equal(t, Permission(4), PermissionCreate)
	assert.Equal(t, Permission(8), PermissionDelete)
	assert.Equal(t, Permission(16), PermissionShare)
	assert.Equal(t, Permission(31), PermissionAll)
}
