// Package ldscript generates GNU linker script fragments that place an
// encoded info blob into its own output section. Three placement modes are
// supported: a dedicated memory region, appending after an existing output
// section, and hosted binaries aligned after .text.
package ldscript

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const scriptTemplate = `{{.Header}}

SECTIONS {
    {{if .Alignment}}. = ALIGN({{.Alignment}});{{end}}
    {{.OutputSection}} : {
        _sinfo = .;
        KEEP(*({{.InputSection}}))
        _einfo = .;
    } {{if .Region}}> {{.Region}}{{end}}
}{{if .InsertAfter}} INSERT AFTER {{.InsertAfter}}{{end}}
{{.Footer}}`

const footerTemplate = `
ASSERT((_einfo - _sinfo) <= {{.MaxSize}}, "
ERROR({{.Filename}}): Information memory output section is greater than {{.MaxSize}} bytes long.
Flashing may overwrite important calibration data. The link has stopped as a precaution.
");
`

var (
	scriptTmpl = template.Must(template.New("ldscript").Parse(scriptTemplate))
	footerTmpl = template.Must(template.New("footer").Parse(footerTemplate))
)

// Config is the resolved placement description the generator renders. Most
// callers build one through SectionConfig, AppendConfig or HostedConfig
// rather than filling it directly.
type Config struct {
	// InputSection is the input section name the blob was assembled into.
	InputSection string
	// OutputSection is the output section the script defines.
	OutputSection string
	// Region, when set, directs the section into a named memory region.
	Region string
	// InsertAfter, when set, emits an INSERT AFTER clause for that section.
	InsertAfter string
	// Alignment, when set, aligns the location counter before the section.
	Alignment string
	// MaxSize, when non-zero, appends an ASSERT guarding the section size.
	MaxSize uint64
}

// SectionConfig places the blob in a dedicated memory region, the layout used
// on parts with separate information memory.
type SectionConfig struct {
	InputSection string // defaults to ".info"
	Region       string // defaults to "INFOMEM"
	MaxSize      uint64 // 0 disables the size assert
}

// Resolve fills defaults and produces the render configuration.
func (c SectionConfig) Resolve() Config {
	return Config{
		InputSection:  orDefault(c.InputSection, ".info"),
		OutputSection: ".info",
		Region:        orDefault(c.Region, "INFOMEM"),
		MaxSize:       c.MaxSize,
	}
}

// AppendConfig places the blob after an existing output section in a shared
// region, the layout used when the blob lives alongside program flash.
type AppendConfig struct {
	InputSection string // defaults to ".info"
	AfterSection string // defaults to ".rodata"
	Region       string // defaults to "FLASH"
	MaxSize      uint64 // 0 disables the size assert
}

// Resolve fills defaults and produces the render configuration.
func (c AppendConfig) Resolve() Config {
	return Config{
		InputSection:  orDefault(c.InputSection, ".info"),
		OutputSection: ".info",
		Region:        orDefault(c.Region, "FLASH"),
		InsertAfter:   orDefault(c.AfterSection, ".rodata"),
		MaxSize:       c.MaxSize,
	}
}

// HostedConfig places the blob inside a hosted executable, aligned to the
// platform section alignment and inserted after .text.
type HostedConfig struct {
	InputSection string // defaults to ".info"
}

// Resolve fills defaults and produces the render configuration.
func (c HostedConfig) Resolve() Config {
	return Config{
		InputSection:  orDefault(c.InputSection, ".info"),
		OutputSection: ".info",
		InsertAfter:   ".text",
		Alignment:     "__section_alignment__",
	}
}

// Resolver is anything that yields a render configuration.
type Resolver interface {
	Resolve() Config
}

// Generate renders the linker script for cfg to w. filename only appears in
// the size-assert diagnostic, so it may be empty when MaxSize is zero.
func Generate(w io.Writer, cfg Resolver, filename string) error {
	resolved := cfg.Resolve()

	footer := ""
	if resolved.MaxSize > 0 {
		var sb strings.Builder
		err := footerTmpl.Execute(&sb, struct {
			MaxSize  uint64
			Filename string
		}{resolved.MaxSize, filename})
		if err != nil {
			return fmt.Errorf("rendering size assert: %w", err)
		}
		footer = sb.String()
	}

	data := struct {
		Config
		Header string
		Footer string
	}{
		Config: resolved,
		Header: "/* Generated by infomem */",
		Footer: footer,
	}

	if err := scriptTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering linker script: %w", err)
	}
	return nil
}

// GenerateFile renders the linker script for cfg to path.
func GenerateFile(path string, cfg Resolver) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := Generate(f, cfg, filepath.Base(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
