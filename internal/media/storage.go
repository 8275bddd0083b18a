package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Storage writes uploaded objects under a flat name.
type Storage interface {
	Put(ctx context.Context, name string, data []byte) error
}

type DiskStorage struct {
	dir string
}

func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: failed to create directory %s: %w", dir, err)
	}
	return &DiskStorage{dir: dir}, nil
}

func (d *DiskStorage) Dir() string {
	return d.dir
}

func (d *DiskStorage) Put(_ context.Context, name string, data []byte) error {
	target := filepath.Join(d.dir, filepath.Base(name))
	tmp := target + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("media: failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("media: failed to move %s into place: %w", name, err)
	}
	return nil
}

type SFTPConfig struct {
	Addr           string
	User           string
	Password       string
	KnownHostsFile string
	Dir            string
}

// SFTPStorage uploads to a remote origin, opening one SSH session per Put.
type SFTPStorage struct {
	cfg       SFTPConfig
	sshConfig *ssh.ClientConfig
}

func NewSFTPStorage(cfg SFTPConfig) (*SFTPStorage, error) {
	hostKeys, err := knownhosts.New(cfg.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("media: failed to load known hosts: %w", err)
	}

	return &SFTPStorage{
		cfg: cfg,
		sshConfig: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
			HostKeyCallback: hostKeys,
		},
	}, nil
}

func (s *SFTPStorage) Put(ctx context.Context, name string, data []byte) error {
	conn, err := ssh.Dial("tcp", s.cfg.Addr, s.sshConfig)
	if err != nil {
		return fmt.Errorf("media: failed to connect to %s: %w", s.cfg.Addr, err)
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return fmt.Errorf("media: failed to start sftp session: %w", err)
	}
	defer client.Close()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := client.MkdirAll(s.cfg.Dir); err != nil {
		return fmt.Errorf("media: failed to create remote directory: %w", err)
	}

	remote := path.Join(s.cfg.Dir, path.Base(name))
	f, err := client.Create(remote)
	if err != nil {
		return fmt.Errorf("media: failed to create remote file %s: %w", remote, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("media: failed to upload %s: %w", remote, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("media: failed to finish upload %s: %w", remote, err)
	}
	return nil
}
