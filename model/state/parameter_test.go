package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameters_Set(t *testing.T) {
	params := Parameters{}
	params.Add("name", "John")
	params.Add("age", 30)
	params.Set("name", "Joe")
	params.Set("city", "Oslo")

	assert.Len(t, params, 3)
	assert.Equal(t, "name", params[0].Name)
	assert.Equal(t, "Joe", params[0].Value)
	assert.Equal(t, "city", params[2].Name)
	assert.Equal(t, map[string]interface{}{"name": "Joe", "age": 30, "city": "Oslo"}, params.ToMap())
}

func TestParameters_Clone(t *testing.T) {
	params := Parameters{{Name: "name", Value: "John"}}
	cloned := params.Clone()
	cloned.Set("name", "Joe")
	assert.Equal(t, "John", params[0].Value)
	assert.Nil(t, Parameters(nil).Clone())
}
