package shopify

import (
	"context"

	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
)

const fileFields = `id alt fileStatus
... on MediaImage { image { url } }
... on GenericFile { url }`

const searchFilesQuery = `query files($first: Int!, $query: String!) {
  files(first: $first, query: $query) { nodes { ` + fileFields + ` } }
}`

const fileCreateMutation = `mutation fileCreate($files: [FileCreateInput!]!) {
  fileCreate(files: $files) {
    files { ` + fileFields + ` }
    userErrors { field message code }
  }
}`

const fileUpdateMutation = `mutation fileUpdate($files: [FileUpdateInput!]!) {
  fileUpdate(files: $files) {
    files { id fileStatus }
    userErrors { field message code }
  }
}`

// SearchFiles runs an Admin search query against the media library.
func (c *Client) SearchFiles(ctx context.Context, query string) ([]File, error) {
	var out struct {
		Files struct {
			Nodes []File `json:"nodes"`
		} `json:"files"`
	}
	vars := map[string]any{"first": constants.SearchPageSize, "query": query}
	if err := c.Do(ctx, searchFilesQuery, vars, &out); err != nil {
		return nil, err
	}
	return out.Files.Nodes, nil
}

// CreateFile uploads one file from a remote URL.
func (c *Client) CreateFile(ctx context.Context, in FileInput) (*File, error) {
	if in.ContentType == "" {
		in.ContentType = "IMAGE"
	}
	var out struct {
		Payload struct {
			Files      []File     `json:"files"`
			UserErrors userErrors `json:"userErrors"`
		} `json:"fileCreate"`
	}
	if err := c.Do(ctx, fileCreateMutation, map[string]any{"files": []FileInput{in}}, &out); err != nil {
		return nil, err
	}
	if err := out.Payload.UserErrors.err("fileCreate"); err != nil {
		return nil, err
	}
	if len(out.Payload.Files) == 0 {
		return nil, errors.NewAPIError("shopify", 0, "fileCreate returned no file")
	}
	f := out.Payload.Files[0]
	return &f, nil
}

// AddFileReferences attaches a file to products (or other owners).
func (c *Client) AddFileReferences(ctx context.Context, fileID string, ownerIDs ...string) error {
	in := []map[string]any{{"id": fileID, "referencesToAdd": ownerIDs}}
	var out struct {
		Payload struct {
			UserErrors userErrors `json:"userErrors"`
		} `json:"fileUpdate"`
	}
	if err := c.Do(ctx, fileUpdateMutation, map[string]any{"files": in}, &out); err != nil {
		return err
	}
	return out.Payload.UserErrors.err("fileUpdate")
}
