package design

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/gridplan/gridplan/pkg/perrors"
)

// designFile mirrors the TOML layout of a design file.
type designFile struct {
	Name   string     `toml:"name"`
	Device deviceFile `toml:"device"`
	Cells  []cellFile `toml:"cells"`
	Nets   []netFile  `toml:"nets"`
}

type deviceFile struct {
	Name   string     `toml:"name"`
	Width  int        `toml:"width"`
	Height int        `toml:"height"`
	Sites  []siteFile `toml:"sites"`
}

type siteFile struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
	X    int    `toml:"x"`
	Y    int    `toml:"y"`
}

type cellFile struct {
	Name   string            `toml:"name"`
	Type   string            `toml:"type"`
	Pseudo bool              `toml:"pseudo"`
	Attrs  map[string]string `toml:"attrs"`
}

type netFile struct {
	Name   string     `toml:"name"`
	Driver string     `toml:"driver"`
	Users  []portFile `toml:"users"`
}

type portFile struct {
	Cell string `toml:"cell"`
	Pin  string `toml:"pin"`
}

// Load reads a TOML design file from disk and returns the validated
// design and device. All validation failures carry the INVALID_DESIGN
// error code.
func Load(path string) (*Design, *Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, perrors.Wrap(perrors.ErrCodeInvalidDesign, err, "read design %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML design data and builds the design and device.
// Cells are created first, then nets with resolved driver/user
// references, so a net may only reference cells declared in the file.
func Parse(data []byte) (*Design, *Device, error) {
	var f designFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, nil, perrors.Wrap(perrors.ErrCodeInvalidDesign, err, "decode design")
	}

	dev, err := NewDevice(f.Device.Name, f.Device.Width, f.Device.Height)
	if err != nil {
		return nil, nil, perrors.Wrap(perrors.ErrCodeInvalidDesign, err, "device %q", f.Device.Name)
	}
	for _, s := range f.Device.Sites {
		if _, err := dev.AddSite(Site{Name: s.Name, Type: s.Type, X: s.X, Y: s.Y}); err != nil {
			return nil, nil, perrors.Wrap(perrors.ErrCodeInvalidDesign, err, "site %q", s.Name)
		}
	}

	d := New(f.Name)
	for _, c := range f.Cells {
		if _, err := d.AddCell(Cell{Name: c.Name, Type: c.Type, Pseudo: c.Pseudo, Attrs: c.Attrs}); err != nil {
			return nil, nil, perrors.Wrap(perrors.ErrCodeInvalidDesign, err, "cell %q", c.Name)
		}
	}

	for _, n := range f.Nets {
		net := Net{Name: n.Name}
		if n.Driver != "" {
			driver, ok := d.Cell(n.Driver)
			if !ok {
				return nil, nil, perrors.New(perrors.ErrCodeInvalidDesign,
					"net %q: driver cell %q not declared", n.Name, n.Driver)
			}
			net.Driver = driver
		}
		for _, u := range n.Users {
			cell, ok := d.Cell(u.Cell)
			if !ok {
				return nil, nil, perrors.New(perrors.ErrCodeInvalidDesign,
					"net %q: user cell %q not declared", n.Name, u.Cell)
			}
			net.Users = append(net.Users, Port{Cell: cell, Pin: u.Pin})
		}
		if _, err := d.AddNet(net); err != nil {
			return nil, nil, perrors.Wrap(perrors.ErrCodeInvalidDesign, err, "net %q", n.Name)
		}
	}

	return d, dev, nil
}
