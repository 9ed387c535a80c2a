package identity

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testService interface{ Foo() }

func TestNameFoldAndEqual(t *testing.T) {
	t.Run("fold lower-cases", func(t *testing.T) {
		assert.Equal(t, "primary", Name("Primary").Fold())
	})

	t.Run("equal is case-insensitive", func(t *testing.T) {
		assert.True(t, Name("Primary").Equal(Name("primary")))
		assert.True(t, Name("PRIMARY").Equal(Name("primary")))
		assert.False(t, Name("primary").Equal(Name("secondary")))
	})

	t.Run("empty name is default", func(t *testing.T) {
		assert.True(t, Name("").IsDefault())
		assert.False(t, Name("primary").IsDefault())
	})
}

func TestNewKey(t *testing.T) {
	svcType := reflect.TypeOf((*testService)(nil)).Elem()

	t.Run("case-folds the name", func(t *testing.T) {
		k1 := NewKey(svcType, Name("Primary"))
		k2 := NewKey(svcType, Name("primary"))
		assert.Equal(t, k1, k2)
		assert.Equal(t, Name("primary"), k1.Name())
	})

	t.Run("keys are comparable and usable as map keys", func(t *testing.T) {
		m := map[Key]int{}
		k := NewKey(svcType, Name(""))
		m[k] = 1
		m[NewKey(svcType, Name(""))] = 2
		assert.Len(t, m, 1)
		assert.Equal(t, 2, m[k])
	})

	t.Run("distinct names produce distinct keys", func(t *testing.T) {
		k1 := NewKey(svcType, Name("a"))
		k2 := NewKey(svcType, Name("b"))
		assert.NotEqual(t, k1, k2)
	})
}

func TestNewGenericKey(t *testing.T) {
	familyKey := reflect.TypeOf((*testService)(nil)).Elem()
	intType := reflect.TypeOf(0)
	stringType := reflect.TypeOf("")

	t.Run("distinct type arguments produce distinct keys for the same family and name", func(t *testing.T) {
		k1 := NewGenericKey(familyKey, Name(""), []reflect.Type{intType})
		k2 := NewGenericKey(familyKey, Name(""), []reflect.Type{stringType})
		assert.NotEqual(t, k1, k2)
	})

	t.Run("identical type arguments produce the same key", func(t *testing.T) {
		k1 := NewGenericKey(familyKey, Name("primary"), []reflect.Type{intType, stringType})
		k2 := NewGenericKey(familyKey, Name("Primary"), []reflect.Type{intType, stringType})
		assert.Equal(t, k1, k2)
	})

	t.Run("a closed-generic key never collides with the open family's own key", func(t *testing.T) {
		familyOnly := NewKey(familyKey, Name(""))
		closed := NewGenericKey(familyKey, Name(""), []reflect.Type{intType})
		assert.NotEqual(t, familyOnly, closed)
	})
}

func TestKeyString(t *testing.T) {
	svcType := reflect.TypeOf((*testService)(nil)).Elem()

	t.Run("unnamed key renders bare type", func(t *testing.T) {
		k := NewKey(svcType, Name(""))
		assert.Equal(t, svcType.String(), k.String())
	})

	t.Run("named key renders type plus name", func(t *testing.T) {
		k := NewKey(svcType, Name("Primary"))
		assert.Equal(t, svcType.String()+"[primary]", k.String())
	})

	t.Run("nil type renders placeholder", func(t *testing.T) {
		var k Key
		assert.Equal(t, "<nil>", k.String())
	})

	t.Run("closed-generic key renders type arguments", func(t *testing.T) {
		k := NewGenericKey(svcType, Name(""), []reflect.Type{reflect.TypeOf(0)})
		assert.Equal(t, svcType.String()+"<int>", k.String())
	})
}
