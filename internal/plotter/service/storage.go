package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ============================================================
// SVG Storage
// ============================================================

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")
)

// SVGStore отдаёт SVG-файлы из одной директории
type SVGStore struct {
	root string
}

func NewSVGStore(root string) *SVGStore {
	return &SVGStore{root: root}
}

func (s *SVGStore) Root() string { return s.root }

// Path возвращает путь к файлу
func (s *SVGStore) Path(name string) string {
	return filepath.Join(s.root, name)
}

// Check проверяет, что директория существует
func (s *SVGStore) Check() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("svg dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("svg dir %s is not a directory", s.root)
	}
	return nil
}

// List возвращает отсортированные имена обычных .svg файлов
func (s *SVGStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read svg dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), ".svg") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read читает файл по имени. Имя не должно выходить за пределы директории.
func (s *SVGStore) Read(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, ".svg") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

// ReadAll читает все файлы по порядку
func (s *SVGStore) ReadAll() (map[string]string, []string, error) {
	names, err := s.List()
	if err != nil {
		return nil, nil, err
	}
	files := make(map[string]string, len(names))
	for _, name := range names {
		svg, err := s.Read(name)
		if err != nil {
			return nil, nil, err
		}
		files[name] = svg
	}
	return files, names, nil
}
