package loader

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SFTPConfig holds the defaults used for sftp:// imports. Credentials in
// the URL take precedence.
type SFTPConfig struct {
	Host       string // used when a URL has no host, as in sftp:///lib/util.pgm
	User       string
	Password   string
	KeyFile    string
	Passphrase string
	KnownHosts string // known_hosts file; host keys are not checked when empty
	Port       int
	Timeout    time.Duration
}

type remote struct {
	client *sftp.Client
	ssh    *ssh.Client
}

func (r *remote) close() error {
	err := r.client.Close()
	if r.ssh != nil {
		if cerr := r.ssh.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func isRemote(name string) bool {
	return strings.HasPrefix(name, "sftp://")
}

// joinRemote resolves name relative to the directory of the remote file
// from.
func joinRemote(from, name string) string {
	u, err := url.Parse(from)
	if err != nil {
		return name
	}
	u.Path = path.Join(path.Dir(u.Path), name)
	return u.String()
}

// target is a parsed sftp:// URL.
type target struct {
	user     string
	password string
	host     string
	port     int
	path     string
}

func (t target) key() string {
	return fmt.Sprintf("sftp:%s@%s:%d", t.user, t.host, t.port)
}

func (t target) url() string {
	return fmt.Sprintf("sftp://%s@%s%s", t.user, net.JoinHostPort(t.host, strconv.Itoa(t.port)), t.path)
}

func (l *Loader) parseTarget(raw string) (target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return target{}, fmt.Errorf("invalid sftp url %q: %w", raw, err)
	}
	t := target{host: u.Hostname(), port: 22, path: u.Path}
	if t.host == "" && l.sftp != nil {
		t.host = l.sftp.Host
	}
	if t.host == "" || t.path == "" {
		return target{}, fmt.Errorf("invalid sftp url %q: host and path required", raw)
	}
	if l.sftp != nil {
		t.user = l.sftp.User
		t.password = l.sftp.Password
		if l.sftp.Port != 0 {
			t.port = l.sftp.Port
		}
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return target{}, fmt.Errorf("invalid sftp port %q", p)
		}
		t.port = n
	}
	if u.User != nil {
		t.user = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			t.password = pw
		}
	}
	if t.user == "" {
		return target{}, fmt.Errorf("sftp url %q has no user", raw)
	}
	return t, nil
}

func (l *Loader) loadRemote(raw string) (string, string, error) {
	t, err := l.parseTarget(raw)
	if err != nil {
		return "", "", err
	}
	r, err := l.connect(t)
	if err != nil {
		return "", "", err
	}
	f, err := r.client.Open(t.path)
	if err != nil {
		return "", "", fmt.Errorf("sftp open %s: %w", t.path, err)
	}
	defer f.Close()
	data, err := decode(t.path, f)
	if err != nil {
		return "", "", err
	}
	return t.url(), string(data), nil
}

// connect returns the cached connection for t, dialling one if needed.
func (l *Loader) connect(t target) (*remote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.remotes[t.key()]; ok {
		return r, nil
	}

	config, err := l.clientConfig(t)
	if err != nil {
		return nil, err
	}
	sshClient, err := ssh.Dial("tcp", net.JoinHostPort(t.host, strconv.Itoa(t.port)), config)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", t.host, err)
	}
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftp session %s: %w", t.host, err)
	}
	r := &remote{client: client, ssh: sshClient}
	l.remotes[t.key()] = r
	return r, nil
}

func (l *Loader) clientConfig(t target) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	cfg := l.sftp
	if cfg == nil {
		cfg = &SFTPConfig{}
	}

	if cfg.KeyFile != "" {
		keyData, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading ssh key: %w", err)
		}
		var signer ssh.Signer
		if cfg.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(cfg.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(keyData)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if t.password != "" {
		auth = append(auth, ssh.Password(t.password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no sftp credentials for %s", t.host)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	config := &ssh.ClientConfig{
		User:            t.user,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}
	if cfg.KnownHosts != "" {
		callback, err := knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("loading known_hosts: %w", err)
		}
		config.HostKeyCallback = callback
	}
	return config, nil
}
