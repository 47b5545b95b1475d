package ecs

// Handle encodes a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
type Handle uint64

func NewHandle(index uint32, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32      { return uint32(h) }
func (h Handle) Generation() uint32 { return uint32(h >> 32) }
func (h Handle) IsZero() bool       { return h == 0 }

// Kind classifies an entity for systems that only care about broad category.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindNPC
	KindAnimal
	KindProjectile
	KindItem
	KindWorldObject
	KindEffect
)

var kindNames = [...]string{
	"player", "npc", "animal", "projectile", "item", "worldobject", "effect",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindFromString maps a definition-table kind name back to a Kind.
func KindFromString(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}
