package client

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// StorageClient wraps the Google Cloud Storage client for recording and
// reference-audio objects.
type StorageClient struct {
	client     *storage.Client
	bucketName string
}

// NewStorageClient creates a new storage client.
func NewStorageClient(ctx context.Context, bucketName string) (*StorageClient, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	return &StorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Close closes the client.
func (c *StorageClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Upload uploads data to cloud storage and returns the object's public URL.
func (c *StorageClient) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	obj := c.client.Bucket(c.bucketName).Object(objectName)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", err
	}

	if err := w.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, objectName), nil
}

// Delete deletes an object from cloud storage.
func (c *StorageClient) Delete(ctx context.Context, objectName string) error {
	return c.client.Bucket(c.bucketName).Object(objectName).Delete(ctx)
}

// Exists checks if an object exists in cloud storage.
func (c *StorageClient) Exists(ctx context.Context, objectName string) (bool, error) {
	_, err := c.client.Bucket(c.bucketName).Object(objectName).Attrs(ctx)
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
