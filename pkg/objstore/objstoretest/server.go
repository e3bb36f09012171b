// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package objstoretest provides an in-memory, path-style S3 endpoint for tests.
package objstoretest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/LeeDigitalWorks/landingpress/pkg/storageconfig"
)

// Object is one stored object.
type Object struct {
	Data        []byte
	ContentType string
}

// Server understands PUT, GET and HEAD on /{bucket}/{key}.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]Object
	puts    []string
	denied  bool
}

// NewServer starts a server with the given buckets already created.
func NewServer(buckets ...string) *Server {
	s := &Server{
		buckets: make(map[string]bool),
		objects: make(map[string]Object),
	}
	for _, b := range buckets {
		s.buckets[b] = true
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Config returns a StorageConfig pointing at this server.
func (s *Server) Config(bucket string) storageconfig.StorageConfig {
	return storageconfig.StorageConfig{
		Endpoint:        s.URL,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test-secret",
		Bucket:          bucket,
	}
}

// DenyAll makes every request fail with AccessDenied.
func (s *Server) DenyAll(deny bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied = deny
}

// Object returns the stored object at bucket/key.
func (s *Server) Object(bucket, key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[bucket+"/"+key]
	return o, ok
}

// Keys returns every stored bucket/key, sorted.
func (s *Server) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Puts returns bucket/key of every PUT in arrival order.
func (s *Server) Puts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.puts...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.denied {
		writeError(w, r, http.StatusForbidden, "AccessDenied", "Access Denied.")
		return
	}
	if !s.buckets[bucket] {
		writeError(w, r, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist")
		return
	}

	id := bucket + "/" + key
	switch r.Method {
	case http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "IncompleteBody", err.Error())
			return
		}
		s.objects[id] = Object{Data: data, ContentType: r.Header.Get("Content-Type")}
		s.puts = append(s.puts, id)
		w.Header().Set("ETag", etag(data))
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		obj, ok := s.objects[id]
		if !ok {
			writeError(w, r, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
			return
		}
		w.Header().Set("Content-Type", obj.ContentType)
		w.Header().Set("Content-Length", fmt.Sprint(len(obj.Data)))
		w.Header().Set("ETag", etag(obj.Data))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.Data)
		}
	default:
		writeError(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, msg)
}

func etag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
