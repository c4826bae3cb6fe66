package templatestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), 8)
	require.NoError(t, err)
	return s
}

func TestExistsAndRead(t *testing.T) {
	s := newStore(t)
	ok, err := s.Exists("Entity.java")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read("Entity.java")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "Entity.java.ftl"), []byte("x"), 0o644))
	ok, err = s.Exists("Entity.java")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriteIfAbsentNeverOverwrites(t *testing.T) {
	s := newStore(t)
	wrote, err := s.WriteIfAbsent("pom.xml", []byte("first"))
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = s.WriteIfAbsent("pom.xml", []byte("second"))
	require.NoError(t, err)
	assert.False(t, wrote)

	raw, err := s.Read("pom.xml")
	require.NoError(t, err)
	assert.Equal(t, "first", string(raw))

	leftovers, err := filepath.Glob(filepath.Join(s.Root(), ".tpl-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteIfAbsentConcurrentSingleWinner(t *testing.T) {
	s := newStore(t)
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wrote, err := s.WriteIfAbsent("Dockerfile", []byte("FROM eclipse-temurin:21"))
			if err == nil && wrote {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestWriteIfAbsentRejectsTraversal(t *testing.T) {
	s := newStore(t)
	_, err := s.WriteIfAbsent("../escape", []byte("x"))
	require.Error(t, err)
}

func TestRenderSubstitutesSpecKeys(t *testing.T) {
	s := newStore(t)
	_, err := s.WriteIfAbsent("Entity.java", []byte(`package {{ .groupId }}.entity; // {{ .projectName | upper }} {{ .missing }}`))
	require.NoError(t, err)

	out, err := s.Render("Entity.java", map[string]any{"groupId": "com.example", "projectName": "shop"})
	require.NoError(t, err)
	assert.Equal(t, "package com.example.entity; // SHOP <no value>", out)
}

func TestLoadReportsParseErrors(t *testing.T) {
	s := newStore(t)
	_, err := s.WriteIfAbsent("Bad.java", []byte("{{ .unclosed "))
	require.NoError(t, err)
	_, err = s.Load("Bad.java")
	require.Error(t, err)
}

func TestLoadIsCachedUntilInvalidated(t *testing.T) {
	s := newStore(t)
	path := filepath.Join(s.Root(), "Model.java.ftl")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	out, err := s.Render("Model.java", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	out, err = s.Render("Model.java", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	s.Invalidate("Model.java")
	out, err = s.Render("Model.java", nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", out)
}

func TestWatchInvalidatesOnWrite(t *testing.T) {
	s := newStore(t)
	path := filepath.Join(s.Root(), "Service.java.ftl")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	_, err := s.Load("Service.java")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("new"), 0o644))
	require.Eventually(t, func() bool {
		out, err := s.Render("Service.java", nil)
		return err == nil && out == "new"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestShippedTemplatesRender(t *testing.T) {
	s, err := New(filepath.Join("..", "..", "templates"), 0)
	require.NoError(t, err)
	spec := map[string]any{"groupId": "com.example", "database": false}

	for _, id := range []string{"pom.xml", "Entity.java", "Model.java", "Repository.java", "Service.java", "Controller.java"} {
		out, err := s.Render(id, spec)
		require.NoError(t, err, id)
		assert.NotContains(t, out, "<no value>", id)
	}

	pom, err := s.Render("pom.xml", spec)
	require.NoError(t, err)
	assert.Contains(t, pom, "<groupId>com.example</groupId>")
	assert.Contains(t, pom, "<artifactId>demo</artifactId>")
	assert.Contains(t, pom, "spring-boot-starter-data-jpa")
	assert.NotContains(t, pom, "spring-kafka")
}
