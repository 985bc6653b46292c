package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductImagePrefix is the folder uploads are written to inside the bucket
const ProductImagePrefix = "products"

// NewObjectPath returns a fresh object path for an uploaded file name,
// keeping its extension: products/<uuid>.<ext>
func NewObjectPath(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return ProductImagePrefix + "/" + name
}

// PublicURL returns the public URL of an object in the bucket
func (c *Client) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.BaseURL, c.Bucket, objectPath)
}

// Upload stores a file and returns its public URL. Existing objects are
// never overwritten.
func (c *Client) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost,
		fmt.Sprintf("/storage/v1/object/%s/%s", c.Bucket, objectPath), body)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "false")

	if _, err := c.do(req); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}

	c.Logger.Info("Image uploaded", zap.String("path", objectPath))
	return c.PublicURL(objectPath), nil
}

// Remove deletes objects from the bucket in one request
func (c *Client) Remove(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodDelete,
		fmt.Sprintf("/storage/v1/object/%s", c.Bucket), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("remove %d objects: %w", len(paths), err)
	}

	c.Logger.Info("Images removed", zap.Strings("paths", paths))
	return nil
}

// PathFromURL extracts the object path that follows the bucket segment of a
// public URL, e.g. .../public/product-images/products/a.jpg -> products/a.jpg
func (c *Client) PathFromURL(rawURL string) (string, error) {
	return ObjectPathFromURL(rawURL, c.Bucket)
}

// ObjectPathFromURL is PathFromURL for an explicit bucket name
func ObjectPathFromURL(rawURL, bucket string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("image url %q is not absolute", rawURL)
	}

	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if seg == bucket {
			rel := strings.Join(segments[i+1:], "/")
			if rel == "" {
				break
			}
			return rel, nil
		}
	}
	return "", fmt.Errorf("bucket %q not found in url %q", bucket, rawURL)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.ServiceRoleKey)
	req.Header.Set("apikey", c.ServiceRoleKey)
}
