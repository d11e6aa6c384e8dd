// Package assets reads the static bot resources: prompts, messages,
// images, the persona list and the quiz list.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/gptbot/bot/quiz"
)

// ErrNotFound is returned when a resource key has no file.
var ErrNotFound = errors.New("assets: not found")

const (
	promptsDir  = "prompts"
	messagesDir = "messages"
	imagesDir   = "images"

	personasFile = "personas.yaml"
	quizFile     = "quiz.yaml"
)

var imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Persona is a character the user can talk to. Prompt and Image are resource keys.
type Persona struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Button string `yaml:"button"`
	Prompt string `yaml:"prompt"`
	Image  string `yaml:"image"`
}

// Image is a loaded picture.
type Image struct {
	Key  string
	Name string
	Data []byte
}

// Catalog resolves resource keys against a file system laid out as
// prompts/<key>.txt, messages/<key>.txt, images/<key>.<ext>,
// personas.yaml and quiz.yaml.
type Catalog struct {
	fsys fs.FS
}

// New returns a catalog over fsys.
func New(fsys fs.FS) *Catalog {
	return &Catalog{fsys: fsys}
}

// Prompt returns the system prompt stored under key.
func (c *Catalog) Prompt(key string) (string, error) {
	return c.text(promptsDir, key)
}

// Message returns the user-facing text stored under key.
func (c *Catalog) Message(key string) (string, error) {
	return c.text(messagesDir, key)
}

func (c *Catalog) text(dir, key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: %s/%q", ErrNotFound, dir, key)
	}
	data, err := fs.ReadFile(c.fsys, path.Join(dir, key+".txt"))
	if err != nil {
		return "", notFound(err, dir, key)
	}
	return strings.TrimSpace(string(data)), nil
}

// Image loads the picture stored under key with any supported extension.
func (c *Catalog) Image(key string) (Image, error) {
	if !validKey(key) {
		return Image{}, fmt.Errorf("%w: image %q", ErrNotFound, key)
	}
	for _, ext := range imageExts {
		name := path.Join(imagesDir, key+ext)
		data, err := fs.ReadFile(c.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Image{}, fmt.Errorf("assets: read %s: %w", name, err)
		}
		return Image{Key: key, Name: path.Base(name), Data: data}, nil
	}
	return Image{}, fmt.Errorf("%w: image %q", ErrNotFound, key)
}

// Personas returns the persona list in file order.
func (c *Catalog) Personas() ([]Persona, error) {
	var doc struct {
		Personas []Persona `yaml:"personas"`
	}
	if err := c.decode(personasFile, &doc); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(doc.Personas))
	for i, p := range doc.Personas {
		if !validKey(p.ID) || p.Name == "" || p.Prompt == "" {
			return nil, fmt.Errorf("assets: persona %d: id, name and prompt are required", i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("assets: duplicate persona %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Button == "" {
			doc.Personas[i].Button = p.Name
		}
	}
	return doc.Personas, nil
}

// QuizItems returns the quiz list in file order.
func (c *Catalog) QuizItems() ([]quiz.Item, error) {
	var doc struct {
		Items []quiz.Item `yaml:"items"`
	}
	if err := c.decode(quizFile, &doc); err != nil {
		return nil, err
	}
	return doc.Items, nil
}

func (c *Catalog) decode(name string, target any) error {
	data, err := fs.ReadFile(c.fsys, name)
	if err != nil {
		return notFound(err, ".", name)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("assets: parse %s: %w", name, err)
	}
	return nil
}

func notFound(err error, dir, key string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, dir, key)
	}
	return fmt.Errorf("assets: read %s/%s: %w", dir, key, err)
}

// validKey rejects keys that would escape their directory.
func validKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, `/\`) && key != "." && key != ".."
}
