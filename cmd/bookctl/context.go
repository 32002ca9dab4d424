package main

import (
	"strings"
	"sync"

	"github.com/localnerve/chapterviewer/internal/config"
)

type commandContext struct {
	configFlag *string
	envFlag    *string
	bookFlag   *string

	settingsOnce sync.Once
	settings     settings
	settingsErr  error
}

func newCommandContext(configFlag, envFlag, bookFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		envFlag:    envFlag,
		bookFlag:   bookFlag,
	}
}

func (c *commandContext) ensureSettings() (settings, error) {
	c.settingsOnce.Do(func() {
		if c.envFlag != nil {
			if err := config.LoadEnvFile(strings.TrimSpace(*c.envFlag)); err != nil {
				c.settingsErr = err
				return
			}
		}
		var path string
		if c.configFlag != nil {
			path = *c.configFlag
		}
		s, err := loadSettings(path)
		if err != nil {
			c.settingsErr = err
			return
		}
		if c.bookFlag != nil && strings.TrimSpace(*c.bookFlag) != "" {
			s.BookPath = strings.TrimSpace(*c.bookFlag)
		}
		c.settings = s
	})
	return c.settings, c.settingsErr
}
