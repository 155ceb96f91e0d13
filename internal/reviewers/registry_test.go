package reviewers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/devils-advocate/internal/models"
)

func TestDefault(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate())
	assert.Equal(t, 3, reg.Len())
	assert.Len(t, reg.ByStance(models.Biased), 2)
	assert.Len(t, reg.ByStance(models.Unbiased), 1)
	assert.Equal(t, 2, reg.Index("Reviewer C"))
	assert.Equal(t, -1, reg.Index("nobody"))
}

func TestNew(t *testing.T) {
	t.Run("empty falls back to default", func(t *testing.T) {
		reg, err := New(nil)
		require.NoError(t, err)
		assert.Equal(t, Default().All(), reg.All())
	})

	t.Run("custom roster keeps order", func(t *testing.T) {
		reg, err := New([]Definition{
			{Name: " Ada ", BiasStance: "Unbiased"},
			{Name: "Bob", BiasStance: "biased", Specialization: "sales"},
		})
		require.NoError(t, err)

		all := reg.All()
		require.Len(t, all, 2)
		assert.Equal(t, models.Reviewer{Name: "Ada", BiasStance: models.Unbiased, Specialization: "general"}, all[0])
		assert.Equal(t, "sales", all[1].Specialization)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := New([]Definition{{Name: "", BiasStance: "biased"}})
		assert.Error(t, err)

		_, err = New([]Definition{{Name: "A", BiasStance: "neutral"}})
		assert.Error(t, err)

		_, err = New([]Definition{{Name: "A", BiasStance: "biased"}, {Name: "a", BiasStance: "unbiased"}})
		assert.Error(t, err)
	})
}

func TestAllReturnsCopy(t *testing.T) {
	reg := Default()
	all := reg.All()
	all[0].Name = "changed"
	assert.Equal(t, "Reviewer A", reg.All()[0].Name)
}
