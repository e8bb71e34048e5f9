package tlgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Default(t *testing.T) {
	env := newTestLogger(t, func(c *Config) { c.Template = "$F: $C$Z" })
	assert.Nil(t, Default())
	assert.NotPanics(t, func() { Logf(LVL_INFO, "nobody listens") })

	SetDefault(env.logger)
	defer SetDefault(nil)
	assert.Equal(t, env.logger, Default())
	env.cons.Clear()
	Logf(LVL_INFO, "via %s", "default")
	assert.Equal(t, "Test_Default: via default\n", env.cons.String())
}
