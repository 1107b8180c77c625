package config

const (
	RemotesFileEnvVar        = "DECLINCUS_REMOTES_FILE"
	DefaultRemoteCatalogPath = "~/.declincus/remotes.yaml"

	ProtocolIncus         = "incus"
	ProtocolSimpleStreams = "simplestreams"
)

// RemoteCatalog is the persisted set of known hypervisor remotes. It is the
// system of record for the remote resource kind: declaring a remote present
// or absent edits this catalog, not a server.
type RemoteCatalog struct {
	Remotes       []Remote `yaml:"remotes"`
	DefaultRemote string   `yaml:"default-remote,omitempty"`
}

type Remote struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	URL         string            `yaml:"url"`
	Protocol    string            `yaml:"protocol,omitempty"`
	Project     string            `yaml:"project,omitempty"`
	Public      bool              `yaml:"public,omitempty"`
	Auth        *RemoteAuth       `yaml:"auth,omitempty"`
	TLS         *TLS              `yaml:"tls,omitempty"`
	Options     map[string]string `yaml:"options,omitempty"`
}

type RemoteAuth struct {
	TrustToken string     `yaml:"trust-token,omitempty"`
	BasicAuth  *BasicAuth `yaml:"basic-auth,omitempty"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type TLS struct {
	CACertFile         string `yaml:"ca-cert-file,omitempty"`
	ClientCertFile     string `yaml:"client-cert-file,omitempty"`
	ClientKeyFile      string `yaml:"client-key-file,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure-skip-verify,omitempty"`
}

// SpecSource describes where declaration documents are read from. Exactly
// one of the members is set.
type SpecSource struct {
	Filesystem *FilesystemSource `yaml:"filesystem,omitempty"`
	Git        *GitSource        `yaml:"git,omitempty"`
}

type FilesystemSource struct {
	BaseDir string `yaml:"base-dir"`
}

type GitSource struct {
	URL     string   `yaml:"url"`
	Branch  string   `yaml:"branch,omitempty"`
	BaseDir string   `yaml:"base-dir,omitempty"`
	Auth    *GitAuth `yaml:"auth,omitempty"`
}

type GitAuth struct {
	BasicAuth *BasicAuth `yaml:"basic-auth,omitempty"`
	SSH       *SSHAuth   `yaml:"ssh,omitempty"`
}

type SSHAuth struct {
	User                  string `yaml:"user"`
	PrivateKeyFile        string `yaml:"private-key-file"`
	Passphrase            string `yaml:"passphrase,omitempty"`
	KnownHostsFile        string `yaml:"known-hosts-file,omitempty"`
	InsecureIgnoreHostKey bool   `yaml:"insecure-ignore-host-key,omitempty"`
}
