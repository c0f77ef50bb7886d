package profile

import (
	"embed"
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/profiles.yaml
var profilesFS embed.FS

// DefaultName is the profile used when the caller does not pick one.
const DefaultName = "mtc-c64x"

// Profile describes one MTC image format variant.
type Profile struct {
	// Name identifies the profile in the catalog and on the command line
	Name string `yaml:"name"`

	// Description says which modules/firmware generations use this layout
	Description string `yaml:"description"`

	// Endian is "little" or "big" and applies to every multi-byte field
	// in the image, COFF payload included
	Endian string `yaml:"endian"`

	// Header is the outer MTC header geometry
	Header HeaderLayout `yaml:"header"`

	// COFF lists the payload header values this variant is known to carry
	COFF COFFExpect `yaml:"coff"`
}

// FieldSpan locates a fixed-length byte field inside the header.
type FieldSpan struct {
	Offset uint32 `yaml:"offset"`
	Length uint32 `yaml:"length"`
}

// HeaderLayout gives the offset of every known MTC header field. The
// *Field members are offsets of 32-bit values; FieldSpan members carry an
// explicit length. Offsets are relative to the start of the image.
type HeaderLayout struct {
	// Size is the total header length; the payload never starts before it
	Size uint32 `yaml:"size"`

	// Magic is the ASCII tag expected at MagicOffset
	Magic       string `yaml:"magic"`
	MagicOffset uint32 `yaml:"magic_offset"`

	// ImageSizeField holds the total image length (0 in old images)
	ImageSizeField uint32 `yaml:"image_size_field"`

	// PayloadOffsetField / PayloadLengthField locate the COFF payload
	PayloadOffsetField uint32 `yaml:"payload_offset_field"`
	PayloadLengthField uint32 `yaml:"payload_length_field"`

	// SignatureOffsetField / SignatureLengthField locate the signature
	// block; both zero means the image is unsigned
	SignatureOffsetField uint32 `yaml:"signature_offset_field"`
	SignatureLengthField uint32 `yaml:"signature_length_field"`

	// ChecksumField holds the additive checksum of the header bytes,
	// computed with the checksum word itself zeroed
	ChecksumField uint32 `yaml:"checksum_field"`

	// NameField / VersionField / DescriptionField carry module metadata.
	// The version is 4 bytes rendered as dotted decimal.
	NameField        FieldSpan `yaml:"name_field"`
	VersionField     uint32    `yaml:"version_field"`
	DescriptionField FieldSpan `yaml:"description_field"`
}

// COFFExpect lists payload header values accepted by this variant.
type COFFExpect struct {
	// Versions are accepted COFF version ids (TI COFF2 is 0xC2)
	Versions []uint16 `yaml:"versions"`

	// TargetIDs are accepted machine ids (0x0099 is TMS320C6000)
	TargetIDs []uint16 `yaml:"target_ids"`
}

// catalogContainer is for YAML unmarshaling
type catalogContainer struct {
	Profiles []*Profile `yaml:"profiles"`
}

// Catalog holds all known profiles.
type Catalog struct {
	Profiles []*Profile

	index map[string]*Profile
}

var (
	globalCatalog     *Catalog
	globalCatalogOnce sync.Once
	globalCatalogErr  error
)

// Load returns the embedded profile catalog. Safe to call multiple times;
// the catalog is parsed only once.
func Load() (*Catalog, error) {
	globalCatalogOnce.Do(func() {
		globalCatalog, globalCatalogErr = loadCatalogInternal()
	})
	return globalCatalog, globalCatalogErr
}

func loadCatalogInternal() (*Catalog, error) {
	raw, err := profilesFS.ReadFile("profiles/profiles.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded profile catalog: %w", err)
	}

	var container catalogContainer
	if err := yaml.Unmarshal(raw, &container); err != nil {
		return nil, fmt.Errorf("failed to parse profiles.yaml: %w", err)
	}

	c := &Catalog{
		Profiles: container.Profiles,
		index:    make(map[string]*Profile),
	}
	for _, p := range c.Profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[p.Name]; dup {
			return nil, &InvalidProfileError{Name: p.Name, Detail: "duplicate profile name"}
		}
		c.index[p.Name] = p
	}
	if _, ok := c.index[DefaultName]; !ok {
		return nil, fmt.Errorf("profile catalog is missing the default profile %q", DefaultName)
	}
	return c, nil
}

// Get retrieves a profile by name.
func (c *Catalog) Get(name string) (*Profile, error) {
	p, ok := c.index[name]
	if !ok {
		return nil, &UnknownProfileError{Name: name, Available: c.Names()}
	}
	return p, nil
}

// Default returns the profile used when none is requested.
func (c *Catalog) Default() *Profile {
	return c.index[DefaultName]
}

// Names returns the catalog profile names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// LoadFile parses a single user-supplied profile from a YAML file. Used for
// format variants the embedded catalog does not cover yet.
func LoadFile(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile file %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Resolve picks the profile for a command invocation: an explicit file wins
// over a catalog name, and an empty name means the default.
func Resolve(name, path string) (*Profile, error) {
	if path != "" {
		return LoadFile(path)
	}
	catalog, err := Load()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return catalog.Default(), nil
	}
	return catalog.Get(name)
}

// ByteOrder maps the profile's endian tag to a binary.ByteOrder.
func (p *Profile) ByteOrder() binary.ByteOrder {
	if p.Endian == "big" {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// AcceptsVersion reports whether v is an accepted COFF version id.
func (p *Profile) AcceptsVersion(v uint16) bool {
	for _, want := range p.COFF.Versions {
		if v == want {
			return true
		}
	}
	return false
}

// AcceptsTarget reports whether id is an accepted COFF target id.
func (p *Profile) AcceptsTarget(id uint16) bool {
	for _, want := range p.COFF.TargetIDs {
		if id == want {
			return true
		}
	}
	return false
}

func (p *Profile) validate() error {
	if p.Name == "" {
		return &InvalidProfileError{Detail: "name is required"}
	}
	if p.Endian != "little" && p.Endian != "big" {
		return &InvalidProfileError{Name: p.Name,
			Detail: fmt.Sprintf("endian must be \"little\" or \"big\", got %q", p.Endian)}
	}
	h := &p.Header
	if h.Magic == "" {
		return &InvalidProfileError{Name: p.Name, Detail: "header magic is required"}
	}
	if h.Size == 0 {
		return &InvalidProfileError{Name: p.Name, Detail: "header size is required"}
	}
	// Every declared field must fall inside the header.
	fields := []struct {
		what string
		off  uint32
		len  uint32
	}{
		{"magic", h.MagicOffset, uint32(len(h.Magic))},
		{"image size", h.ImageSizeField, 4},
		{"payload offset", h.PayloadOffsetField, 4},
		{"payload length", h.PayloadLengthField, 4},
		{"signature offset", h.SignatureOffsetField, 4},
		{"signature length", h.SignatureLengthField, 4},
		{"checksum", h.ChecksumField, 4},
		{"name", h.NameField.Offset, h.NameField.Length},
		{"version", h.VersionField, 4},
		{"description", h.DescriptionField.Offset, h.DescriptionField.Length},
	}
	for _, f := range fields {
		if uint64(f.off)+uint64(f.len) > uint64(h.Size) {
			return &InvalidProfileError{Name: p.Name,
				Detail: fmt.Sprintf("%s field at 0x%x+%d lies outside the %d-byte header",
					f.what, f.off, f.len, h.Size)}
		}
	}
	if len(p.COFF.Versions) == 0 {
		return &InvalidProfileError{Name: p.Name, Detail: "at least one accepted COFF version is required"}
	}
	if len(p.COFF.TargetIDs) == 0 {
		return &InvalidProfileError{Name: p.Name, Detail: "at least one accepted COFF target id is required"}
	}
	return nil
}
