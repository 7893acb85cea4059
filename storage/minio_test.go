package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akshayUniverse/cook-ease-sub001/config"
)

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/recipe-images",
		publicBaseURL(&config.MinioConfig{Endpoint: "localhost:9000", Bucket: "recipe-images"}))
	assert.Equal(t, "https://s3.example.com/imgs",
		publicBaseURL(&config.MinioConfig{Endpoint: "s3.example.com", Bucket: "imgs", UseSSL: true}))
	assert.Equal(t, "https://cdn.example.com",
		publicBaseURL(&config.MinioConfig{Endpoint: "x", Bucket: "y", PublicURL: "https://cdn.example.com/"}))
}

func TestURLJoinsKey(t *testing.T) {
	s := &MinioStore{publicURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/recipes/1/a.png", s.URL("recipes/1/a.png"))
}
