package publish

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/records"
	"git.home.luguber.info/inful/siteconfig/internal/snapshot"
)

const (
	fieldModules  = "modules"
	fieldIsActive = "isActive"
	fieldName     = "name"

	// moduleFolderDepth is the folder level holding a module: root, modules folder, module.
	moduleFolderDepth = 3
)

// Module is one active module of the core configuration.
type Module struct {
	Name   string
	Record records.Record
	// Folder is the module folder path, root first.
	Folder []string
}

// ModuleFolder returns the folder path of the module owning rec.
func ModuleFolder(rec records.Record) ([]string, error) {
	if len(rec.Folder) < moduleFolderDepth {
		return nil, errors.MissingFolderStructure(rec.ID, len(rec.Folder))
	}
	return append([]string(nil), rec.Folder[:moduleFolderDepth]...), nil
}

// ActiveModules lists the active modules linked from the core configuration
// record, sorted by name. Two modules with the same name are an error.
func ActiveModules(snap *snapshot.Snapshot, coreConfig, publication string) ([]Module, error) {
	core, ok := snap.Store.At(coreConfig, publication)
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("core configuration record %q not found", coreConfig)).
			WithContext("record", coreConfig).
			WithContext("publication", publication).
			Fatal().
			Build()
	}
	linked, err := snap.Store.Links(core, fieldModules, publication)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(linked))
	modules := make([]Module, 0, len(linked))
	for _, rec := range linked {
		if rec.Text(fieldIsActive) == "No" {
			continue
		}
		folder, err := ModuleFolder(rec)
		if err != nil {
			return nil, err
		}
		name := rec.Text(fieldName)
		if name == "" {
			name = strings.ToLower(folder[moduleFolderDepth-1])
		}
		if other, dup := seen[name]; dup {
			return nil, errors.ValidationError(fmt.Sprintf("module %q configured by records %q and %q", name, other, rec.ID)).
				WithContext("module", name).
				Build()
		}
		seen[name] = rec.ID
		modules = append(modules, Module{Name: name, Record: rec, Folder: folder})
	}
	sort.SliceStable(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	return modules, nil
}
