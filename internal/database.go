package internal

import (
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig is used for every gorm session, production and test alike.
// TranslateError maps driver unique violations to gorm.ErrDuplicatedKey,
// which the repositories turn into domain conflicts. A nil logger keeps
// gorm's default.
func GormConfig(l gormlogger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:         l,
		TranslateError: true,
	}
}
