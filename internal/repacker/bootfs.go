package repacker

import (
	"fmt"
	"os"
	"path"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/filesystem"

	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

// InjectBootFiles writes the given files into the first partition of a raw
// SD-card image. The partition must be FAT32 (the boot layout every
// supported vendor builder produces); anything else is refused rather than
// guessed at.
func InjectBootFiles(imgPath string, files map[string][]byte) error {
	log := logger.Logger()

	dsk, err := diskfs.Open(imgPath, diskfs.WithSectorSize(diskfs.SectorSize512))
	if err != nil {
		return fmt.Errorf("open disk image: %w", err)
	}
	defer dsk.Close()

	fs, err := dsk.GetFilesystem(1)
	if err != nil {
		return fmt.Errorf("reading boot partition of %s: %w", imgPath, err)
	}
	if fs.Type() != filesystem.TypeFat32 {
		return fmt.Errorf("boot partition of %s is not FAT, refusing to modify it", imgPath)
	}

	for name, content := range files {
		if err := writeBootFile(fs, name, content); err != nil {
			return err
		}
		log.Debugf("Wrote %s (%d bytes) into boot partition", name, len(content))
	}
	return fs.Close()
}

func writeBootFile(fs filesystem.FileSystem, name string, content []byte) error {
	target := "/" + path.Clean(name)
	if dir := path.Dir(target); dir != "/" {
		if err := fs.Mkdir(dir); err != nil {
			return fmt.Errorf("creating %s in boot partition: %w", dir, err)
		}
	}
	f, err := fs.OpenFile(target, os.O_CREATE|os.O_RDWR)
	if err != nil {
		return fmt.Errorf("opening %s in boot partition: %w", target, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return f.Close()
}
