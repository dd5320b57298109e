// Package config defines the format-agnostic contract between the
// application and whatever produces its node tree. The HCL implementation
// lives in the hcltree package.
package config
