// Package storage hosts transcoded artifacts (optimized GIFs, stickers) on
// Supabase storage with a local DATA_DIR fallback outside production.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gifswap/internal/config"
	"gifswap/internal/logger"

	"github.com/antoineross/supabase-go"
	storage_go "github.com/supabase-community/storage-go"
)

type Service struct {
	log *logger.Logger
	cfg config.Config

	supabaseClient *supabase.Client
}

func New(cfg config.Config) (*Service, error) {
	s := &Service{log: logger.New("Storage"), cfg: cfg}

	if cfg.AppEnv == "production" {
		if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" || cfg.SupabaseBucket == "" {
			return nil, fmt.Errorf("production environment requires Supabase configuration: SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY and SUPABASE_STORAGE_BUCKET must be set")
		}
	}

	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
		if err != nil {
			if cfg.AppEnv == "production" {
				return nil, fmt.Errorf("failed to initialize Supabase client in production: %w", err)
			}
			s.log.LogWarnf("failed to initialize Supabase client: %v", err)
		} else {
			s.supabaseClient = client
		}
	}
	return s, nil
}

// Enabled reports whether uploads can go anywhere at all.
func (s *Service) Enabled() bool {
	return s.supabaseClient != nil || s.cfg.AppEnv != "production"
}

// Upload persists artifact bytes under the given name and returns a URL the
// caller can hand to the user. Falls back to DATA_DIR outside production.
func (s *Service) Upload(name string, data []byte, mimeType string) (string, error) {
	if s.supabaseClient != nil && s.cfg.SupabaseBucket != "" {
		bucketPath := filepath.ToSlash(filepath.Join("artifacts", name))
		reader := bytes.NewReader(data)
		if _, err := s.supabaseClient.Storage.UploadFile(s.cfg.SupabaseBucket, bucketPath, reader, storage_go.FileOptions{ContentType: &mimeType}); err != nil {
			if s.cfg.AppEnv == "production" {
				return "", fmt.Errorf("artifact upload failed: %w", err)
			}
			s.log.LogWarnf("supabase upload failed, using local fallback: %v", err)
			return s.saveLocal(name, data)
		}
		signed, err := s.signURL(s.cfg.SupabaseBucket, bucketPath, 15*60)
		if err != nil {
			if s.cfg.AppEnv == "production" {
				return "", fmt.Errorf("artifact sign failed: %w", err)
			}
			s.log.LogWarnf("supabase sign failed, using local fallback: %v", err)
			return s.saveLocal(name, data)
		}
		return signed, nil
	}

	if s.cfg.AppEnv == "production" {
		return "", fmt.Errorf("supabase storage is required in production environment")
	}
	return s.saveLocal(name, data)
}

func (s *Service) saveLocal(name string, data []byte) (string, error) {
	dir := filepath.Join(s.cfg.DataDir, "artifacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", err
	}
	return "/files/artifacts/" + name, nil
}

// signURL performs a direct REST call to sign objects with fresh headers.
func (s *Service) signURL(bucket, objectPath string, expiresIn int) (string, error) {
	if s.cfg.SupabaseURL == "" || s.cfg.SupabaseServiceKey == "" {
		return "", fmt.Errorf("supabase not configured")
	}

	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", strings.TrimRight(s.cfg.SupabaseURL, "/"), bucket, objectPath)
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(map[string]int{"expiresIn": expiresIn}); err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, signURL, buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.SupabaseServiceKey)
	req.Header.Set("apikey", s.cfg.SupabaseServiceKey)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to create signed URL: status %d", resp.StatusCode)
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", err
	}

	path := signed.SignedURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, "/storage/v1/") {
		path = "/storage/v1" + path
	}
	return strings.TrimRight(s.cfg.SupabaseURL, "/") + path, nil
}

// SanitizeName makes an arbitrary string safe to use as an artifact filename.
func SanitizeName(u string) string {
	replacer := strings.NewReplacer(":", "-", "/", "-", "?", "-", "&", "-", "=", "-", "#", "-", "%", "")
	out := replacer.Replace(u)
	if len(out) > 64 {
		out = out[:64]
	}
	return out
}
