package osinfo

import (
	"context"
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/workstation-bootstrap/utils/command/commandtest"
)

const debianRelease = `PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"
NAME="Debian GNU/Linux"
VERSION_ID="12"
VERSION_CODENAME=bookworm
ID=debian
HOME_URL="https://www.debian.org/"
`

const mintRelease = `NAME="Linux Mint"
ID=linuxmint
ID_LIKE="ubuntu debian"
UBUNTU_CODENAME=jammy
`

func writeRelease(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixedUsers(euid int, sudoUser string) Option {
	return WithUserLookup(
		func(key string) string {
			if key == "SUDO_USER" {
				return sudoUser
			}
			return ""
		},
		func() int { return euid },
		func() (*user.User, error) {
			if euid == 0 {
				return &user.User{Username: "root", HomeDir: "/root"}, nil
			}
			return &user.User{Username: "dev", HomeDir: "/home/dev"}, nil
		},
	)
}

func TestReadRelease(t *testing.T) {
	t.Parallel()

	rel, err := ReadRelease(writeRelease(t, debianRelease))
	require.NoError(t, err)
	require.Equal(t, "debian", rel.ID)
	require.Equal(t, "bookworm", rel.Codename)
	require.True(t, rel.DebianLike())

	rel, err = ReadRelease(writeRelease(t, mintRelease))
	require.NoError(t, err)
	require.Equal(t, "jammy", rel.Codename)
	require.True(t, rel.DebianLike())
	require.Equal(t, "ubuntu", rel.Family())

	_, err = ReadRelease(filepath.Join(t.TempDir(), "missing"))
	require.IsType(t, ReleaseError{}, err)
}

func TestDetect(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{Match: "dpkg --print-architecture", Stdout: "arm64\n"})
	info, err := Detect(context.Background(), r, WithReleasePath(writeRelease(t, debianRelease)), fixedUsers(1000, ""))
	require.NoError(t, err)
	require.Equal(t, Info{ID: "debian", Family: "debian", Codename: "bookworm", Arch: "arm64", User: "dev", Home: "/home/dev"}, info)
}

func TestDetectRefusesSudoInvocation(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{Match: "dpkg", Stdout: "amd64"})
	_, err := Detect(context.Background(), r, WithReleasePath(writeRelease(t, debianRelease)), fixedUsers(0, "alice"))
	require.Equal(t, SudoInvocationError{User: "alice"}, err)
	require.Contains(t, err.Error(), "as alice without sudo")
	require.Empty(t, r.Calls())

	// A plain root login is provisioned as root.
	info, err := Detect(context.Background(), r, WithReleasePath(writeRelease(t, debianRelease)), fixedUsers(0, ""))
	require.NoError(t, err)
	require.Equal(t, "root", info.User)
	require.Equal(t, "/root", info.Home)

	info, err = Detect(context.Background(), r, WithReleasePath(writeRelease(t, debianRelease)), fixedUsers(0, "root"))
	require.NoError(t, err)
	require.Equal(t, "/root", info.Home)
}

func TestDetectRejectsUnsupported(t *testing.T) {
	t.Parallel()

	path := writeRelease(t, "ID=fedora\nVERSION_ID=40\n")
	_, err := Detect(context.Background(), commandtest.New(), WithReleasePath(path), fixedUsers(1000, ""))
	require.IsType(t, UnsupportedError{}, err)
}

func TestDetectArchFailure(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{Match: "dpkg", Err: errors.New("exit status 127"), Stderr: "dpkg: not found"})
	_, err := Detect(context.Background(), r, WithReleasePath(writeRelease(t, debianRelease)), fixedUsers(1000, ""))
	require.IsType(t, ArchError{}, err)
}
