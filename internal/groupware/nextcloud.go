package groupware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	foldersPath = "/index.php/apps/groupfolders/folders"

	// ocsStatusOK is the OCS v1 success status code.
	ocsStatusOK = 100

	requestTimeout = 15 * time.Second
)

type nextcloudClient struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

// NewNextcloud builds a Folders gateway speaking the group folders OCS API.
// baseURL is the Nextcloud root without a trailing slash.
func NewNextcloud(baseURL, username, password string) Folders {
	return &nextcloudClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

type ocsEnvelope struct {
	OCS ocsPayload `json:"ocs"`
}

type ocsPayload struct {
	Meta ocsMeta         `json:"meta"`
	Data json.RawMessage `json:"data"`
}

type ocsMeta struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statuscode"`
	Message    string `json:"message"`
}

func (m ocsMeta) OK() bool {
	return m.StatusCode == ocsStatusOK
}

type folderRecord struct {
	ID         int    `json:"id"`
	Mountpoint string `json:"mount_point"`
}

func (c *nextcloudClient) CreateFolder(ctx context.Context, mountpoint string) (int, error) {
	var created struct {
		ID int `json:"id"`
	}

	form := url.Values{"mountpoint": {mountpoint}}
	if err := c.do(ctx, http.MethodPost, foldersPath, form, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (c *nextcloudClient) FindFolder(ctx context.Context, mountpoint string) (int, bool, error) {
	folders, err := c.listFolders(ctx)
	if err != nil {
		return 0, false, err
	}

	for _, f := range folders {
		if f.Mountpoint == mountpoint {
			return f.ID, true, nil
		}
	}
	return 0, false, nil
}

func (c *nextcloudClient) GrantAccess(ctx context.Context, folderID int, group string) error {
	form := url.Values{"group": {group}}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/groups", foldersPath, folderID), form, nil)
}

func (c *nextcloudClient) SetPermission(ctx context.Context, folderID int, group string, permissions Permission) error {
	form := url.Values{"permissions": {strconv.Itoa(int(permissions))}}
	path := fmt.Sprintf("%s/%d/groups/%s", foldersPath, folderID, url.PathEscape(group))
	return c.do(ctx, http.MethodPost, path, form, nil)
}

func (c *nextcloudClient) listFolders(ctx context.Context) ([]folderRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, foldersPath, nil, &raw); err != nil {
		return nil, err
	}

	// An empty folder set serializes as [] instead of an object keyed by id.
	if len(raw) == 0 || raw[0] == '[' {
		return nil, nil
	}

	var byID map[string]folderRecord
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, errors.Wrap(err, "decode folder list")
	}

	folders := make([]folderRecord, 0, len(byID))
	for _, f := range byID {
		folders = append(folders, f)
	}
	return folders, nil
}

func (c *nextcloudClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?format=json", body)
	if err != nil {
		return errors.Wrap(err, "build groupware request")
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("OCS-APIRequest", "true")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Wrapf(ErrUnavailable, "groupware returned %d", resp.StatusCode)
	}

	var envelope ocsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	if !envelope.OCS.Meta.OK() {
		return errors.Errorf("groupware rejected %s %s: %s (%d)",
			method, path, envelope.OCS.Meta.Message, envelope.OCS.Meta.StatusCode)
	}

	if out != nil && len(envelope.OCS.Data) > 0 {
		if err := json.Unmarshal(envelope.OCS.Data, out); err != nil {
			return errors.Wrap(err, "decode groupware payload")
		}
	}
	return nil
}
