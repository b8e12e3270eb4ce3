package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the catalog format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported catalog extension %q", filepath.Ext(path))
	}
}

// Title is one launchable title of a catalog.
type Title struct {
	TitleID uint64
	Name    string
	Media   types.MediaType
}

type catalogFile struct {
	Titles []titleEntry `yaml:"titles" toml:"titles" json:"titles"`
}

type titleEntry struct {
	TitleID string `yaml:"title_id" toml:"title_id" json:"title_id"`
	Name    string `yaml:"name" toml:"name" json:"name"`
	Media   string `yaml:"media" toml:"media" json:"media"`
}

// Catalog is the set of titles a launcher may start. An open catalog
// accepts any title.
type Catalog struct {
	titles map[uint64]Title
	open   bool
}

// OpenCatalog returns a catalog that accepts every title.
func OpenCatalog() *Catalog {
	return &Catalog{titles: map[uint64]Title{}, open: true}
}

// LoadCatalog reads a catalog file in the format named by its extension.
func LoadCatalog(path string) (*Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data, format)
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte, format Format) (*Catalog, error) {
	var file catalogFile
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &file)
	case FormatTOML:
		err = toml.Unmarshal(data, &file)
	case FormatJSON:
		err = sonic.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s catalog: %w", format, err)
	}

	c := &Catalog{titles: make(map[uint64]Title, len(file.Titles))}
	for i, e := range file.Titles {
		t, err := e.title()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if _, dup := c.titles[t.TitleID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate title %016X", i, t.TitleID)
		}
		c.titles[t.TitleID] = t
	}
	return c, nil
}

func (e titleEntry) title() (Title, error) {
	tid, err := ParseTitleID(e.TitleID)
	if err != nil {
		return Title{}, err
	}
	media, err := ParseMedia(e.Media)
	if err != nil {
		return Title{}, err
	}
	return Title{TitleID: tid, Name: e.Name, Media: media}, nil
}

// ParseTitleID parses a hexadecimal title id with an optional 0x prefix.
func ParseTitleID(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("empty title id")
	}
	tid, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid title id %q: %w", s, err)
	}
	return tid, nil
}

// ParseMedia parses a media name. An empty name means NAND.
func ParseMedia(s string) (types.MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nand":
		return types.MediaNAND, nil
	case "sdmc", "sd":
		return types.MediaSDMC, nil
	case "gamecard", "cart":
		return types.MediaGameCard, nil
	default:
		return 0, fmt.Errorf("unknown media %q", s)
	}
}

// Lookup returns the catalog entry for a title on media.
func (c *Catalog) Lookup(media types.MediaType, titleID uint64) (Title, bool) {
	t, ok := c.titles[titleID]
	if ok {
		return t, t.Media == media
	}
	if c.open {
		return Title{TitleID: titleID, Media: media}, true
	}
	return Title{}, false
}

// Len returns the number of listed titles.
func (c *Catalog) Len() int {
	return len(c.titles)
}
