// Package update provides version checking and self-update functionality.
package update

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	// GitHubRepo is the repository to check for updates.
	GitHubRepo = "taskboard/taskboard"
	// CheckInterval is the minimum time between update checks.
	CheckInterval = 24 * time.Hour
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

// Release represents a GitHub release response.
type Release struct {
	TagName     string  `json:"tag_name"`
	Name        string  `json:"name"`
	HTMLURL     string  `json:"html_url"`
	PublishedAt string  `json:"published_at"`
	Assets      []Asset `json:"assets"`
}

// Asset represents a release asset.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// checkCache stores the last update check info.
type checkCache struct {
	LastCheck     int64  `json:"last_check"`
	LatestVersion string `json:"latest_version"`
	DownloadURL   string `json:"download_url"`
}

// Checker handles update checking and caching.
type Checker struct {
	configDir string
	cache     *checkCache
}

// NewChecker creates a new update checker.
func NewChecker() (*Checker, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "taskboard")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	c := &Checker{configDir: configDir}
	_ = c.loadCache()
	return c, nil
}

// ShouldCheck returns true if enough time has passed since the last check.
func (c *Checker) ShouldCheck() bool {
	if c.cache == nil {
		return true
	}
	return time.Since(time.Unix(c.cache.LastCheck, 0)) > CheckInterval
}

// CheckForUpdate checks GitHub for a newer version.
// Returns (hasUpdate, latestVersion, error).
func (c *Checker) CheckForUpdate() (bool, string, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", GitHubRepo)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return false, "", fmt.Errorf("failed to check for updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return false, "", fmt.Errorf("failed to parse release info: %w", err)
	}

	latestVersion := strings.TrimPrefix(release.TagName, "v")
	currentVersion := strings.TrimPrefix(Version, "v")

	c.cache = &checkCache{
		LastCheck:     time.Now().Unix(),
		LatestVersion: latestVersion,
		DownloadURL:   findAssetURL(release.Assets),
	}
	_ = c.saveCache()

	// Simple string comparison, works for semver
	hasUpdate := latestVersion != currentVersion && currentVersion != "dev"
	return hasUpdate, latestVersion, nil
}

// DownloadURL returns the cached download URL for the latest release.
func (c *Checker) DownloadURL() string {
	if c.cache == nil {
		return ""
	}
	return c.cache.DownloadURL
}

// DownloadAndInstall downloads the latest release and replaces the running
// binary, then verifies the new binary runs.
func (c *Checker) DownloadAndInstall(logf func(string)) error {
	url := c.DownloadURL()
	if url == "" {
		if _, _, err := c.CheckForUpdate(); err != nil {
			return err
		}
		url = c.DownloadURL()
	}
	if url == "" {
		return fmt.Errorf("no download URL available for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	logf(fmt.Sprintf("Downloading %s", shortURL(url)))
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", "taskboard-update-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	_, err = io.Copy(tmpFile, resp.Body)
	tmpFile.Close()
	if err != nil {
		return fmt.Errorf("failed to download binary: %w", err)
	}

	if err := os.Chmod(tmpPath, 0755); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	currentBin, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get current executable: %w", err)
	}
	currentBin, _ = filepath.EvalSymlinks(currentBin)

	// A running binary cannot always be overwritten in place, so rename it
	// aside first and restore on failure.
	logf("Replacing old binary")
	backupPath := currentBin + ".old"
	os.Remove(backupPath)

	if err := os.Rename(currentBin, backupPath); err != nil {
		return fmt.Errorf("failed to backup current binary: %w", err)
	}

	if err := copyFile(tmpPath, currentBin); err != nil {
		os.Rename(backupPath, currentBin)
		return fmt.Errorf("failed to install new binary: %w", err)
	}
	os.Remove(backupPath)

	logf("Verifying new binary")
	if err := exec.Command(currentBin, "version").Run(); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	return nil
}

// Run performs the interactive self-update: check, download, install.
func Run() error {
	checker, err := NewChecker()
	if err != nil {
		return err
	}

	fmt.Printf("Current version: %s\n", Version)

	hasUpdate, latestVersion, err := checker.CheckForUpdate()
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !hasUpdate {
		fmt.Println("Already running the latest version.")
		return nil
	}

	fmt.Printf("New version available: %s\n", latestVersion)
	if err := checker.DownloadAndInstall(func(msg string) {
		fmt.Printf("  %s\n", msg)
	}); err != nil {
		return err
	}

	fmt.Printf("Updated to version %s\n", latestVersion)
	return nil
}

// cachePath returns the path to the cache file.
func (c *Checker) cachePath() string {
	return filepath.Join(c.configDir, "update_cache.json")
}

func (c *Checker) loadCache() error {
	data, err := os.ReadFile(c.cachePath())
	if err != nil {
		return err
	}

	var cache checkCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return err
	}
	c.cache = &cache
	return nil
}

func (c *Checker) saveCache() error {
	if c.cache == nil {
		return nil
	}
	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.cachePath(), data, 0600)
}

// findAssetURL finds the download URL for the current OS/arch.
func findAssetURL(assets []Asset) string {
	goos := runtime.GOOS
	arch := runtime.GOARCH

	archAliases := map[string][]string{
		"amd64": {"amd64", "x86_64", "x64"},
		"arm64": {"arm64", "aarch64"},
		"386":   {"386", "i386", "x86"},
	}
	aliases, ok := archAliases[arch]
	if !ok {
		aliases = []string{arch}
	}

	for _, asset := range assets {
		name := strings.ToLower(asset.Name)
		if !strings.Contains(name, goos) {
			continue
		}
		for _, alias := range aliases {
			if strings.Contains(name, alias) {
				return asset.BrowserDownloadURL
			}
		}
	}
	return ""
}

func shortURL(u string) string {
	if len(u) > 60 {
		return u[:57] + "..."
	}
	return u
}

// copyFile copies a file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode())
}
