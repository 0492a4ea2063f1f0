// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployment

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

type Variant string

const (
	ArchiveVariant Variant = "archive"
	EncodedVariant Variant = "encoded"
)

// ArchiveProperty is the property holding the archive path for the variant.
func (v Variant) ArchiveProperty() string {
	if v == EncodedVariant {
		return "node_archive_path"
	}
	return "archive_path"
}

const (
	defaultProtocol = "t3"
	envPrefix       = "wlsctl"
)

// Properties are the deployment settings read from a Java-style .properties
// file, WLSCTL_* environment, and command-line flags, in increasing precedence.
type Properties struct {
	AdminUsername   string `prop:"admin_username" validate:"required"`
	AdminPassword   string `prop:"admin_password" validate:"required"`
	AdminHost       string `prop:"admin_host" validate:"required"`
	AdminPort       string `prop:"admin_port" validate:"required,port"`
	Protocol        string `prop:"admin_protocol" validate:"omitempty,oneof=t3 t3s http https"`
	ArchivePath     string `prop:"archive_path" validate:"required"`
	NodeArchivePath string `prop:"node_archive_path" validate:"required"`
	Targets         string `prop:"targets" validate:"required"`
}

// PropertyNames in file order, admin_user being an alias of admin_username.
var PropertyNames = []string{
	"admin_username", "admin_password", "admin_host", "admin_port", "admin_protocol",
	"archive_path", "node_archive_path", "targets",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("prop")
	})
	v.RegisterValidation("port", func(fl validator.FieldLevel) bool {
		port, err := strconv.ParseUint(fl.Field().String(), 10, 16)
		return err == nil && port > 0
	})
	return v
}

// LoadProperties reads the properties file, if any, then applies WLSCTL_*
// environment and non-empty overrides keyed by property name.
func LoadProperties(filename string, overrides map[string]string) (*Properties, error) {
	v := viper.New()
	v.SetConfigType("properties")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("Unable to read properties file `%s`: %v", filename, err)}
		}
		if config.Verbose {
			log.Printf("Using properties file %s", v.ConfigFileUsed())
		}
	}
	for key, value := range overrides {
		if value != "" {
			v.Set(key, value)
		}
	}

	props := &Properties{
		AdminUsername:   util.Coalesce(v.GetString("admin_username"), v.GetString("admin_user")),
		AdminPassword:   v.GetString("admin_password"),
		AdminHost:       v.GetString("admin_host"),
		AdminPort:       v.GetString("admin_port"),
		Protocol:        v.GetString("admin_protocol"),
		ArchivePath:     v.GetString("archive_path"),
		NodeArchivePath: v.GetString("node_archive_path"),
		Targets:         v.GetString("targets"),
	}
	if config.Trace {
		log.Printf("Properties: %+v", props.masked())
	}
	return props, nil
}

func (p *Properties) masked() Properties {
	m := *p
	m.AdminPassword = util.Mask(m.AdminPassword)
	return m
}

// ArchivePathFor is the archive path the variant deploys from.
func (p *Properties) ArchivePathFor(variant Variant) string {
	if variant == EncodedVariant {
		return p.NodeArchivePath
	}
	return p.ArchivePath
}

// Validate checks every property the variant needs, before any remote call,
// and reports all offenders at once as *ConfigError.
func (p *Properties) Validate(variant Variant) error {
	if variant != ArchiveVariant && variant != EncodedVariant {
		return &ConfigError{Err: fmt.Errorf("Unknown deployment variant `%s`", variant)}
	}
	if p == nil {
		return &ConfigError{Err: errors.New("No properties loaded")}
	}
	unused := ArchiveVariant.ArchiveProperty()
	if variant == ArchiveVariant {
		unused = EncodedVariant.ArchiveProperty()
	}

	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return &ConfigError{Err: err}
	}
	configErr := &ConfigError{}
	for _, fe := range fieldErrors {
		if fe.Field() == unused {
			continue
		}
		if fe.Tag() == "required" {
			configErr.Missing = append(configErr.Missing, fe.Field())
		} else {
			configErr.Invalid = append(configErr.Invalid, fmt.Sprintf("%s (`%v` fails %s)", fe.Field(), fe.Value(), validationHint(fe)))
		}
	}
	if len(configErr.Missing) == 0 && len(configErr.Invalid) == 0 {
		return nil
	}
	return configErr
}

func validationHint(fe validator.FieldError) string {
	switch fe.Tag() {
	case "port":
		return "port number 1..65535"
	case "oneof":
		return "one of " + fe.Param()
	}
	return fe.Tag()
}
