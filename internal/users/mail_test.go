package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderResetEmail(t *testing.T) {
	// Arrange & Act
	body, err := renderResetEmail("María", "A1B2C3")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, string(body), "María")
	assert.Contains(t, string(body), "A1B2C3")
	assert.Contains(t, string(body), "30 minutos")
}

func TestRenderResetEmailEscapesName(t *testing.T) {
	// Arrange: o nombre vem do cadastro do usuário e entra num corpo HTML
	nombre := `<script>alert("x")</script>`

	// Act
	body, err := renderResetEmail(nombre, "A1B2C3")

	// Assert
	require.NoError(t, err)
	assert.NotContains(t, string(body), "<script>")
	assert.Contains(t, string(body), "&lt;script&gt;")
}
