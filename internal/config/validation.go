package config

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateSnapshot,
		cv.validatePublication,
		cv.validateTopology,
		cv.validateOutput,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateSnapshot() error {
	s := cv.config.Snapshot
	switch {
	case s.Path == "" && s.Git == nil:
		return errors.ValidationError("snapshot.path or snapshot.git is required").WithContext("field", "snapshot").Build()
	case s.Path != "" && s.Git != nil:
		return errors.ValidationError("snapshot.path and snapshot.git are mutually exclusive").WithContext("field", "snapshot").Build()
	case s.Git != nil && s.Git.URL == "":
		return errors.ValidationError("snapshot.git.url is required").WithContext("field", "snapshot.git.url").Build()
	}
	return nil
}

func (cv *configurationValidator) validatePublication() error {
	if strings.TrimSpace(cv.config.Publication.ID) == "" {
		return errors.ValidationError("publication.id is required").WithContext("field", "publication.id").Build()
	}
	if strings.TrimSpace(cv.config.Publication.CoreConfig) == "" {
		return errors.ValidationError("publication.core_config is required").WithContext("field", "publication.core_config").Build()
	}
	return nil
}

func (cv *configurationValidator) validateTopology() error {
	for i, q := range cv.config.Topology.SearchQueryURLs {
		if q.Purpose == "" || q.URL == "" {
			return errors.ValidationError("search query url entries need purpose and url").
				WithContext("field", "topology.search_query_urls").
				WithContext("index", i).Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	out := cv.config.Output
	switch out.Backend {
	case BackendFS:
		return nil
	case BackendS3:
		if out.S3 == nil || out.S3.Endpoint == "" || out.S3.Bucket == "" {
			return errors.ValidationError("output.s3 endpoint and bucket are required for the s3 backend").
				WithContext("field", "output.s3").Build()
		}
		return nil
	default:
		return errors.ValidationError("unknown output backend").
			WithContext("field", "output.backend").
			WithContext("value", string(out.Backend)).Build()
	}
}

// TopologyOverrideEnabled reports whether the CMS version gate for the
// cmsurl override is satisfied (major version 8).
func (p PublishingConfig) TopologyOverrideEnabled() bool {
	major, _, _ := strings.Cut(strings.TrimSpace(p.CMSVersion), ".")
	n, err := strconv.Atoi(major)
	return err == nil && n == 8
}
