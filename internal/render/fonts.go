package render

import (
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Weight is a variant of the preferred font family.
type Weight int

const (
	Regular Weight = iota
	MediumWeight
	SemiBold
)

// Weights lists the preferred-family weights in resolution order.
var Weights = []Weight{Regular, MediumWeight, SemiBold}

// DefaultRoleWeights maps each role to the weight it is drawn with.
var DefaultRoleWeights = map[Role]Weight{
	Label:      Regular,
	Small:      Regular,
	Annotation: Regular,
	Medium:     MediumWeight,
	Large:      SemiBold,
}

// Tier records where a role's face came from.
type Tier int

const (
	TierNone Tier = iota
	TierPreferred
	TierSystem
	TierBuiltin
)

func (t Tier) String() string {
	switch t {
	case TierPreferred:
		return "preferred"
	case TierSystem:
		return "system"
	case TierBuiltin:
		return "builtin"
	default:
		return "none"
	}
}

// FontSources lists the candidate font files.
type FontSources struct {
	Preferred   map[Weight]string
	System      []string
	RoleWeights map[Role]Weight // nil means DefaultRoleWeights
}

// ReadFileFunc loads a font file; os.ReadFile is the default.
type ReadFileFunc func(path string) ([]byte, error)

// FontSet holds a face for every role. Faces are not safe for concurrent
// use, so each render resolves its own set.
type FontSet struct {
	faces [numRoles]font.Face
	tiers [numRoles]Tier
}

// Face returns the face of role r; it is never nil for a resolved set.
func (fs *FontSet) Face(r Role) font.Face {
	return fs.faces[r]
}

// Tier reports which fallback tier served role r.
func (fs *FontSet) Tier(r Role) Tier {
	return fs.tiers[r]
}

// BuiltinFontSet uses the built-in bitmap face for every role.
func BuiltinFontSet() *FontSet {
	fs := &FontSet{}
	for _, r := range Roles {
		fs.set(r, basicfont.Face7x13, TierBuiltin)
	}
	return fs
}

func (fs *FontSet) set(r Role, f font.Face, t Tier) {
	fs.faces[r] = f
	fs.tiers[r] = t
}

type resolveState int

const (
	tryingPreferred resolveState = iota
	tryingSystem
	usingBuiltin
	resolved
)

// ResolveFonts walks the fallback chain and always returns a complete set.
//
// The preferred family is tried weight by weight; a missing weight only
// affects its own roles. The system list is consulted, using one font at
// every size, only when no preferred weight loads at all. The built-in face
// terminates the chain. A final backfill pass gives every empty role the
// face of the nearest smaller one.
func ResolveFonts(src FontSources, sizes Sizes, read ReadFileFunc) *FontSet {
	if read == nil {
		read = os.ReadFile
	}
	roleWeights := src.RoleWeights
	if roleWeights == nil {
		roleWeights = DefaultRoleWeights
	}

	fs := &FontSet{}
	state := tryingPreferred
	for state != resolved {
		switch state {
		case tryingPreferred:
			loaded := 0
			for _, w := range Weights {
				f := loadFont(src.Preferred[w], read)
				if f == nil {
					continue
				}
				for _, r := range Roles {
					if roleWeights[r] != w {
						continue
					}
					if face := newFace(f, sizes[r]); face != nil {
						fs.set(r, face, TierPreferred)
						loaded++
					}
				}
			}
			switch {
			case loaded == 0:
				state = tryingSystem
			case fs.faces[Label] == nil:
				// Partial family without the label weight: label falls
				// through on its own and the rest of the family is kept.
				if f := firstFont(src.System, read); f != nil {
					if face := newFace(f, sizes[Label]); face != nil {
						fs.set(Label, face, TierSystem)
					}
				}
				state = resolved
			default:
				state = resolved
			}

		case tryingSystem:
			state = usingBuiltin
			f := firstFont(src.System, read)
			if f == nil {
				continue
			}
			for _, r := range Roles {
				if face := newFace(f, sizes[r]); face != nil {
					fs.set(r, face, TierSystem)
				}
			}
			if fs.faces[Label] != nil {
				state = resolved
			}

		case usingBuiltin:
			fs.set(Label, basicfont.Face7x13, TierBuiltin)
			state = resolved
		}
	}

	fs.backfill()
	return fs
}

func (fs *FontSet) backfill() {
	if fs.faces[Label] == nil {
		fs.set(Label, basicfont.Face7x13, TierBuiltin)
	}
	fill := func(dst, from Role) {
		if fs.faces[dst] == nil {
			fs.set(dst, fs.faces[from], fs.tiers[from])
		}
	}
	fill(Small, Label)
	fill(Medium, Small)
	fill(Large, Medium)
	fill(Annotation, Label)
}

func firstFont(paths []string, read ReadFileFunc) *opentype.Font {
	for _, p := range paths {
		if f := loadFont(p, read); f != nil {
			return f
		}
	}
	return nil
}

func loadFont(path string, read ReadFileFunc) *opentype.Font {
	if path == "" {
		return nil
	}
	data, err := read(path)
	if err != nil {
		return nil
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil
	}
	return f
}

func newFace(f *opentype.Font, size float64) font.Face {
	// At 72 DPI one point is one pixel.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil
	}
	return face
}
