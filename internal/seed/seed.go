// Package seed holds the embedded catalog fixtures and their YAML codec.
package seed

import (
	"embed"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

//go:embed data/*.yaml
var fixtures embed.FS

// Variant couples a fixture with the review policy it ships with.
type Variant struct {
	Name   string
	Kind   string
	Policy domain.Policy
	file   string
}

var variants = map[string]Variant{
	"bots": {
		Name:   "bots",
		Kind:   domain.KindBot,
		Policy: domain.Policy{Moderated: false, StrictTransitions: true},
		file:   "data/bots.yaml",
	},
	"projects": {
		Name:   "projects",
		Kind:   domain.KindProject,
		Policy: domain.Policy{Moderated: true, StrictTransitions: true},
		file:   "data/projects.yaml",
	},
}

func Lookup(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown variant %q (want bots or projects)", name)
	}
	return v, nil
}

// Snapshot parses the variant's embedded fixture.
func (v Variant) Snapshot() (domain.Snapshot, error) {
	data, err := fixtures.ReadFile(v.file)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read fixture %s: %w", v.file, err)
	}
	return Parse(data)
}

type document struct {
	Kind       string     `yaml:"kind"`
	Categories []category `yaml:"categories"`
	Items      []item     `yaml:"items"`
	Reviews    []review   `yaml:"reviews"`
}

type category struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Icon        string `yaml:"icon,omitempty"`
	Color       string `yaml:"color,omitempty"`
}

type item struct {
	ID            string    `yaml:"id"`
	Kind          string    `yaml:"kind,omitempty"`
	Name          string    `yaml:"name"`
	Description   string    `yaml:"description,omitempty"`
	CategoryID    string    `yaml:"category_id"`
	DownloadURL   string    `yaml:"download_url,omitempty"`
	SourceURL     string    `yaml:"source_url,omitempty"`
	ImageURL      string    `yaml:"image_url,omitempty"`
	Likes         int       `yaml:"likes"`
	Downloads     int       `yaml:"downloads"`
	Views         int       `yaml:"views,omitempty"`
	Rating        float64   `yaml:"rating"`
	Tags          []string  `yaml:"tags,flow"`
	Featured      bool      `yaml:"featured,omitempty"`
	Difficulty    string    `yaml:"difficulty,omitempty"`
	EstimatedTime string    `yaml:"estimated_time,omitempty"`
	Files         []file    `yaml:"files,omitempty"`
	CreatedAt     time.Time `yaml:"created_at"`
	UpdatedAt     time.Time `yaml:"updated_at"`
}

type file struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Size       int64     `yaml:"size"`
	Type       string    `yaml:"type,omitempty"`
	Version    string    `yaml:"version,omitempty"`
	UploadedAt time.Time `yaml:"uploaded_at"`
}

type review struct {
	ID        string    `yaml:"id"`
	ItemID    string    `yaml:"item_id"`
	Author    string    `yaml:"author"`
	Email     string    `yaml:"email,omitempty"`
	Rating    int       `yaml:"rating"`
	Comment   string    `yaml:"comment"`
	Status    string    `yaml:"status"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Parse decodes a fixture. Category counters are recomputed from the items so
// a hand-edited file cannot break them; reviews must reference known items.
func Parse(data []byte) (domain.Snapshot, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode fixture: %w", err)
	}

	snap := domain.Snapshot{
		Items:      make([]domain.Item, 0, len(doc.Items)),
		Reviews:    make([]domain.Review, 0, len(doc.Reviews)),
		Categories: make([]domain.Category, 0, len(doc.Categories)),
		Selection:  domain.NewSelection(),
	}

	counts := map[string]int{}
	itemIDs := map[string]bool{}
	for _, it := range doc.Items {
		if it.ID == "" || it.Name == "" {
			return domain.Snapshot{}, fmt.Errorf("item %q: id and name are required", it.ID)
		}
		if itemIDs[it.ID] {
			return domain.Snapshot{}, fmt.Errorf("duplicate item id %q", it.ID)
		}
		itemIDs[it.ID] = true
		counts[it.CategoryID]++

		files := make([]domain.File, 0, len(it.Files))
		for _, f := range it.Files {
			files = append(files, domain.File{ID: f.ID, Name: f.Name, Size: f.Size, Type: f.Type, Version: f.Version, UploadedAt: f.UploadedAt})
		}
		kind := it.Kind
		if kind == "" {
			kind = doc.Kind
		}
		snap.Items = append(snap.Items, domain.Item{
			ID:            it.ID,
			Kind:          kind,
			Name:          it.Name,
			Description:   it.Description,
			CategoryID:    it.CategoryID,
			Tags:          it.Tags,
			Likes:         it.Likes,
			Downloads:     it.Downloads,
			Views:         it.Views,
			Rating:        it.Rating,
			Featured:      it.Featured,
			DownloadURL:   it.DownloadURL,
			SourceURL:     it.SourceURL,
			ImageURL:      it.ImageURL,
			Difficulty:    it.Difficulty,
			EstimatedTime: it.EstimatedTime,
			Files:         files,
			CreatedAt:     it.CreatedAt,
			UpdatedAt:     it.UpdatedAt,
		})
	}

	for _, c := range doc.Categories {
		snap.Categories = append(snap.Categories, domain.Category{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Icon:        c.Icon,
			Color:       c.Color,
			ItemCount:   counts[c.ID],
		})
	}

	for _, rv := range doc.Reviews {
		if !itemIDs[rv.ItemID] {
			return domain.Snapshot{}, fmt.Errorf("review %q references unknown item %q", rv.ID, rv.ItemID)
		}
		status := domain.ReviewStatus(rv.Status)
		if status == "" {
			status = domain.ReviewApproved
		}
		snap.Reviews = append(snap.Reviews, domain.Review{
			ID:        rv.ID,
			ItemID:    rv.ItemID,
			Author:    rv.Author,
			Email:     rv.Email,
			Rating:    rv.Rating,
			Comment:   rv.Comment,
			Status:    status,
			CreatedAt: rv.CreatedAt,
			UpdatedAt: rv.CreatedAt,
		})
	}
	return snap, nil
}

// Export writes s in fixture form.
func Export(w io.Writer, kind string, s domain.Snapshot) error {
	doc := document{Kind: kind}
	for _, c := range s.Categories {
		doc.Categories = append(doc.Categories, category{ID: c.ID, Name: c.Name, Description: c.Description, Icon: c.Icon, Color: c.Color})
	}
	for _, it := range s.Items {
		out := item{
			ID:            it.ID,
			Name:          it.Name,
			Description:   it.Description,
			CategoryID:    it.CategoryID,
			DownloadURL:   it.DownloadURL,
			SourceURL:     it.SourceURL,
			ImageURL:      it.ImageURL,
			Likes:         it.Likes,
			Downloads:     it.Downloads,
			Views:         it.Views,
			Rating:        it.Rating,
			Tags:          it.Tags,
			Featured:      it.Featured,
			Difficulty:    it.Difficulty,
			EstimatedTime: it.EstimatedTime,
			CreatedAt:     it.CreatedAt,
			UpdatedAt:     it.UpdatedAt,
		}
		if it.Kind != kind {
			out.Kind = it.Kind
		}
		for _, f := range it.Files {
			out.Files = append(out.Files, file{ID: f.ID, Name: f.Name, Size: f.Size, Type: f.Type, Version: f.Version, UploadedAt: f.UploadedAt})
		}
		doc.Items = append(doc.Items, out)
	}
	for _, rv := range s.Reviews {
		doc.Reviews = append(doc.Reviews, review{
			ID:        rv.ID,
			ItemID:    rv.ItemID,
			Author:    rv.Author,
			Email:     rv.Email,
			Rating:    rv.Rating,
			Comment:   rv.Comment,
			Status:    string(rv.Status),
			CreatedAt: rv.CreatedAt,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	return enc.Close()
}
