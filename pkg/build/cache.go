package build

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Cache manages blcc's incremental-translation cache.
//
// Concurrency Safety:
//   - Read operations (NeedsTranslate, Stats) are safe for concurrent use.
//   - Write operations (MarkTranslated, Invalidate, save) must be
//     externally synchronized; Workspace.translateFile holds Workspace.mu
//     around them during parallel translation.
type Cache struct {
	Root      string
	CacheDir  string
	Entries   map[string]*CacheEntry
	cacheFile string
}

// CacheEntry is the cached translation state for one source file.
type CacheEntry struct {
	SourcePath   string    // original dialect source path
	OutputPath   string    // generated .cpp path
	SourceHash   string    // SHA-256 of the source content
	OutputHash   string    // SHA-256 of the generated content
	LastBuilt    time.Time // when this file was last translated
	Dependencies []string  // #include targets this file names, at last translation
}

// NewCache creates or loads the translation cache for workspaceRoot.
func NewCache(workspaceRoot string) (*Cache, error) {
	cacheDir := filepath.Join(workspaceRoot, ".blcc-cache")
	cacheFile := filepath.Join(cacheDir, "translate-cache.json")

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &Cache{
		Root:      workspaceRoot,
		CacheDir:  cacheDir,
		Entries:   make(map[string]*CacheEntry),
		cacheFile: cacheFile,
	}

	if err := cache.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	return cache, nil
}

// NeedsTranslate reports whether sourcePath must be retranslated: no cache
// entry, missing output, a newer mtime, a changed content hash, or a
// dependency (header) whose mtime is newer than the last translation.
func (c *Cache) NeedsTranslate(sourcePath string) (bool, error) {
	absPath, err := filepath.Abs(sourcePath)
	if err != nil {
		return true, err
	}

	entry, exists := c.Entries[absPath]
	if !exists {
		return true, nil
	}

	sourceInfo, err := os.Stat(absPath)
	if err != nil {
		return true, err
	}

	outputPath := GetTranslatedPath(absPath)
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		return true, nil
	}

	if sourceInfo.ModTime().After(entry.LastBuilt) {
		return true, nil
	}

	currentHash, err := hashFile(absPath)
	if err != nil {
		return true, err
	}
	if currentHash != entry.SourceHash {
		return true, nil
	}

	for _, depPath := range entry.Dependencies {
		depInfo, err := os.Stat(depPath)
		if err != nil {
			return true, nil // dependency missing = needs retranslation
		}
		if depInfo.ModTime().After(entry.LastBuilt) {
			return true, nil
		}
	}

	return false, nil
}

// MarkTranslated records sourcePath as freshly translated.
func (c *Cache) MarkTranslated(sourcePath string) error {
	absPath, err := filepath.Abs(sourcePath)
	if err != nil {
		return err
	}

	outputPath := GetTranslatedPath(absPath)

	sourceHash, err := hashFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to hash source: %w", err)
	}

	outputHash, err := hashFile(outputPath)
	if err != nil {
		return fmt.Errorf("failed to hash output: %w", err)
	}

	deps, err := extractIncludes(absPath)
	if err != nil {
		deps = nil // best-effort: a stale/missing dependency list just means fewer invalidation triggers
	}
	resolvedDeps := make([]string, 0, len(deps))
	for _, inc := range deps {
		resolvedDeps = append(resolvedDeps, filepath.Join(filepath.Dir(absPath), inc))
	}

	c.Entries[absPath] = &CacheEntry{
		SourcePath:   absPath,
		OutputPath:   outputPath,
		SourceHash:   sourceHash,
		OutputHash:   outputHash,
		LastBuilt:    time.Now(),
		Dependencies: resolvedDeps,
	}

	return c.save()
}

// Invalidate removes sourcePath's cache entry.
func (c *Cache) Invalidate(sourcePath string) error {
	absPath, err := filepath.Abs(sourcePath)
	if err != nil {
		return err
	}

	delete(c.Entries, absPath)
	return c.save()
}

// InvalidateAll clears the entire cache.
func (c *Cache) InvalidateAll() error {
	c.Entries = make(map[string]*CacheEntry)
	return c.save()
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.cacheFile)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &c.Entries)
}

func (c *Cache) save() error {
	data, err := json.MarshalIndent(c.Entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	return os.WriteFile(c.cacheFile, data, 0644)
}

func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// Stats returns summary statistics about the cache.
func (c *Cache) Stats() map[string]interface{} {
	totalSize := int64(0)
	for _, entry := range c.Entries {
		if info, err := os.Stat(entry.OutputPath); err == nil {
			totalSize += info.Size()
		}
	}

	return map[string]interface{}{
		"entries":    len(c.Entries),
		"total_size": totalSize,
		"cache_dir":  c.CacheDir,
	}
}

// Clean removes entries whose source or output file no longer exists.
func (c *Cache) Clean() error {
	toRemove := make([]string, 0)

	for path, entry := range c.Entries {
		if _, err := os.Stat(entry.SourcePath); os.IsNotExist(err) {
			toRemove = append(toRemove, path)
			continue
		}
		if _, err := os.Stat(entry.OutputPath); os.IsNotExist(err) {
			toRemove = append(toRemove, path)
			continue
		}
	}

	for _, path := range toRemove {
		delete(c.Entries, path)
	}

	if len(toRemove) > 0 {
		return c.save()
	}

	return nil
}
