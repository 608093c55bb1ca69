package jwt_test

import (
	"testing"

	"github.com/jhoicas/inventory-movements/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "secreto-de-pruebas"

func TestGenerateYParse(t *testing.T) {
	token, err := jwt.Generate(secret, "op-9", "bodega-central", "bodeguero", "inventory-movements", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "op-9", claims.OperatorID)
	assert.Equal(t, "op-9", claims.Subject)
	assert.Equal(t, "bodega-central", claims.LocationID)
	assert.Equal(t, "bodeguero", claims.Role)
	assert.Equal(t, "inventory-movements", claims.Issuer)
}

func TestParse_Rechazos(t *testing.T) {
	token, err := jwt.Generate(secret, "op-9", "", "admin", "x", 5)
	require.NoError(t, err)

	_, err = jwt.Parse("otro-secreto", token)
	assert.Error(t, err, "firma inválida")

	expired, err := jwt.Generate(secret, "op-9", "", "admin", "x", -1)
	require.NoError(t, err)
	_, err = jwt.Parse(secret, expired)
	assert.Error(t, err, "token vencido")

	_, err = jwt.Parse("", token)
	assert.Error(t, err)
	_, err = jwt.Generate("", "op-9", "", "admin", "x", 5)
	assert.Error(t, err)
}
