package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gwcatalog/pkg/contracts/domain"
)

// pycbcFilePrefix is how 2-OGC posterior files begin; the rest is the event date.
const pycbcFilePrefix = "H1L1V1-EXTRACT_POSTERIOR_"

// EventFile is a sample file together with the event it belongs to.
type EventFile struct {
	Event   string
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds producer sample files below a base directory.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// resolve joins relative directories onto the base path.
func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindEventFiles lists the loadable sample files of producer in dir, sorted
// by event name. Two files naming the same event are an error.
func (d *Discovery) FindEventFiles(dir string, producer domain.Producer) ([]EventFile, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	seen := make(map[string]string)
	var files []EventFile
	for _, entry := range entries {
		if entry.IsDir() || !SupportedExtension(entry.Name()) {
			continue
		}
		name := entry.Name()
		event, ok := EventName(producer, name)
		if !ok {
			continue
		}
		if other, dup := seen[event]; dup {
			return nil, fmt.Errorf("event %s found in both %s and %s", event, other, name)
		}
		seen[event] = name

		file, err := newEventFile(fullPath, event, entry)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Event < files[j].Event
	})
	return files, nil
}

func newEventFile(dir, event string, entry fs.DirEntry) (EventFile, error) {
	info, err := entry.Info()
	if err != nil {
		return EventFile{}, fmt.Errorf("failed to stat %s: %w", filepath.Join(dir, entry.Name()), err)
	}
	return EventFile{
		Event:   event,
		Path:    filepath.Join(dir, entry.Name()),
		Name:    entry.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// EventName derives the event name from a sample file name the way each
// producer names its releases:
//
//	ias:   GW170104.npy                              -> GW170104
//	pycbc: H1L1V1-EXTRACT_POSTERIOR_170104.csv       -> GW170104
//	lvc:   GW190412_comoving.dat                     -> GW190412
func EventName(producer domain.Producer, fileName string) (string, bool) {
	base := filepath.Base(fileName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var event string
	switch producer {
	case domain.ProducerIAS:
		event = stem
	case domain.ProducerPyCBC:
		event = stem
		if strings.HasPrefix(stem, pycbcFilePrefix) {
			event = "GW" + strings.TrimPrefix(stem, pycbcFilePrefix)
		}
	case domain.ProducerLVC:
		event, _, _ = strings.Cut(stem, "_")
	default:
		return "", false
	}
	if event == "" {
		return "", false
	}
	return event, true
}
