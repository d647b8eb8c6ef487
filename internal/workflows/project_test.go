package workflows

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/PolarWolf314/sealdrop/internal/audit"
	"github.com/PolarWolf314/sealdrop/internal/configs"
	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	"github.com/PolarWolf314/sealdrop/internal/transfer"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	recipientOnce    sync.Once
	recipientEntity  *openpgp.Entity
	recipientArmored string
	recipientErr     error
)

func recipientKey(t *testing.T) (*openpgp.Entity, string) {
	t.Helper()
	recipientOnce.Do(func() {
		recipientEntity, recipientErr = openpgp.NewEntity("Partner", "uploads", "partner@example.com", nil)
		if recipientErr != nil {
			return
		}
		var buf bytes.Buffer
		w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
		if err != nil {
			recipientErr = err
			return
		}
		if err := recipientEntity.Serialize(w); err != nil {
			recipientErr = err
			return
		}
		if err := w.Close(); err != nil {
			recipientErr = err
			return
		}
		recipientArmored = buf.String()
	})
	require.NoError(t, recipientErr)
	return recipientEntity, recipientArmored
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(wd)
		configs.ProjectSettings = &configs.Settings{}
	})
}

// setupProject initializes a project in a temp dir with an inline
// recipient key and a project-relative private key file. The fake
// channels never parse the key, so its content is a placeholder.
func setupProject(t *testing.T, withKey bool) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	chdir(t, dir)

	res, err := Init(context.Background(), InitOptions{
		Host:       "sftp.example.com",
		Username:   "uploader",
		PrivateKey: "keys/id_ed25519",
	})
	require.NoError(t, err)
	assert.False(t, res.NeedsEndpoint)
	writeFiles(t, dir, map[string]string{"keys/id_ed25519": "placeholder"})

	if withKey {
		_, armored := recipientKey(t)
		config, err := configs.LoadConfigFrom(res.ConfigPath)
		require.NoError(t, err)
		config.Keys.PGPPublicKeyArmored = armored
		require.NoError(t, configs.SaveConfig(res.ConfigPath, config))
	}
	return dir
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	}
}

func decrypt(t *testing.T, path string) string {
	t.Helper()
	entity, _ := recipientKey(t)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	block, err := armor.Decode(f)
	require.NoError(t, err)
	md, err := openpgp.ReadMessage(block.Body, openpgp.EntityList{entity}, nil, nil)
	require.NoError(t, err)
	data, err := io.ReadAll(md.UnverifiedBody)
	require.NoError(t, err)
	return string(data)
}

func TestInit(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	chdir(t, dir)

	res, err := Init(context.Background(), InitOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), res.ProjectName)
	assert.NotEmpty(t, res.ProjectUUID)
	assert.True(t, res.NeedsEndpoint, "host and username are not set yet")
	assert.FileExists(t, filepath.Join(dir, ".sealdrop", "config.toml"))

	_, err = Init(context.Background(), InitOptions{})
	assert.ErrorIs(t, err, kerrors.ErrProjectAlreadyInitialized)
}

func TestWorkflowsRequireProject(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	chdir(t, dir)
	ctx := context.Background()

	_, err = Run(ctx, RunOptions{})
	assert.ErrorIs(t, err, kerrors.ErrProjectNotInitialized)
	_, err = StageList(ctx)
	assert.ErrorIs(t, err, kerrors.ErrProjectNotInitialized)
	_, err = Log(ctx, LogOptions{})
	assert.ErrorIs(t, err, kerrors.ErrProjectNotInitialized)
}

func TestStaging(t *testing.T) {
	dir := setupProject(t, true)
	ctx := context.Background()
	writeFiles(t, dir, map[string]string{
		"a.csv":      "1\n",
		"b.CSV":      "2\n",
		"notes.txt":  "skip\n",
		"sub/c.csv":  "3\n",
		"sub/d.csv":  "4\n",
		"sub/e.json": "{}\n",
	})

	res, err := StageAdd(ctx, StageAddOptions{All: true})
	require.NoError(t, err)
	assert.Equal(t, dir, res.Context)
	assert.Equal(t, []string{"a.csv", "b.CSV"}, res.Staged)
	assert.Equal(t, 2, res.Changed)

	res, err = StageAdd(ctx, StageAddOptions{Patterns: []string{"a.csv"}})
	require.NoError(t, err)
	assert.Zero(t, res.Changed, "adding a staged file is a no-op")

	_, err = StageAdd(ctx, StageAddOptions{Patterns: []string{"notes.txt"}})
	assert.ErrorIs(t, err, kerrors.ErrNoFilesFound)

	res, err = StageRemove(ctx, []string{"a.csv", "never-staged.csv"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Changed)

	list, err := StageList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.CSV"}, list.Staged)
	assert.Equal(t, []string{"a.csv"}, list.Available)
	assert.Equal(t, []string{"keys", "sub"}, list.Directories)

	res, err = StageChangeDir(ctx, "sub")
	require.NoError(t, err)
	assert.True(t, res.Cleared)
	assert.Equal(t, filepath.Join(dir, "sub"), res.Context)
	assert.Empty(t, res.Staged)

	res, err = StageAdd(ctx, StageAddOptions{Patterns: []string{"*.csv"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.csv", "d.csv"}, res.Staged)

	_, err = StageChangeDir(ctx, "missing")
	assert.ErrorIs(t, err, kerrors.ErrContextNotFound)

	res, err = StageChangeDir(ctx, "..")
	require.NoError(t, err)
	assert.Equal(t, dir, res.Context)
	assert.True(t, res.Cleared, "navigating back to the parent clears the selection")

	res, err = StageAdd(ctx, StageAddOptions{All: true})
	require.NoError(t, err)
	res, err = StageClear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Changed)
	assert.Empty(t, res.Staged)
}

func TestRunEndToEnd(t *testing.T) {
	dir := setupProject(t, true)
	ctx := context.Background()
	writeFiles(t, dir, map[string]string{
		"orders.csv":  "id,total\n1,10\n",
		"refunds.csv": "id,total\n2,-5\n",
	})

	_, err := StageAdd(ctx, StageAddOptions{All: true})
	require.NoError(t, err)

	ch := newFakeChannel(t)
	open, opens := ch.opener()
	batch, err := Run(ctx, RunOptions{BatchOptions{Opener: open}})
	require.NoError(t, err)

	assert.Equal(t, 1, *opens)
	assert.Equal(t, StateDone, batch.State)
	require.Len(t, batch.TransferJobs, 2)
	for _, job := range batch.TransferJobs {
		assert.Equal(t, StatusVerified, job.Status)
	}
	assert.Equal(t, filepath.Join(dir, "keys", "id_ed25519"), batch.KeyPath)

	artifact := filepath.Join(dir, "encrypted", "orders.csv.pgp")
	assert.Equal(t, "id,total\n1,10\n", decrypt(t, artifact))
	assert.FileExists(t, filepath.Join(dir, "orders.csv"), "sources are never removed")

	list, err := StageList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders.csv", "refunds.csv"}, list.Staged, "the selection survives a run")
	assert.Equal(t, []string{"encrypted", "keys"}, list.Directories)

	logs, err := Log(ctx, LogOptions{Batch: batch.ID})
	require.NoError(t, err)
	require.Len(t, logs.Entries, 5)
	assert.Equal(t, audit.EventBatchComplete, logs.Entries[4].Event)
	assert.Equal(t, string(StateDone), logs.Entries[4].State)
	assert.Equal(t, 2, logs.Entries[4].Verified)

	failures, err := Log(ctx, LogOptions{Failures: true})
	require.NoError(t, err)
	require.Len(t, failures.Entries, 1)
	assert.Equal(t, audit.EventBatchComplete, failures.Entries[0].Event)
}

func TestRunNothingStaged(t *testing.T) {
	setupProject(t, true)
	_, err := Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, kerrors.ErrNothingStaged)

	_, err = Encrypt(context.Background(), EncryptOptions{})
	assert.ErrorIs(t, err, kerrors.ErrNothingStaged)
}

func TestRunWithoutRecipientIsFatal(t *testing.T) {
	dir := setupProject(t, false)
	ctx := context.Background()
	writeFiles(t, dir, map[string]string{"a.csv": "1\n"})
	_, err := StageAdd(ctx, StageAddOptions{All: true})
	require.NoError(t, err)

	ch := newFakeChannel(t)
	open, opens := ch.opener()
	batch, err := Run(ctx, RunOptions{BatchOptions{Opener: open}})
	assert.ErrorIs(t, err, kerrors.ErrKeyNotConfigured)
	require.NotNil(t, batch)
	assert.Equal(t, StateFailedFatal, batch.State)
	assert.Zero(t, *opens)

	assert.Contains(t, err.Error(), "keys.pgp_public_key (not set)")

	logs, err := Log(ctx, LogOptions{Failures: true})
	require.NoError(t, err)
	assert.Equal(t, audit.EventFatal, logs.Entries[0].Event)
	assert.Equal(t, "keys.pgp_public_key (not set)", logs.Entries[0].Key)
}

func TestRunWithMalformedRecipientFile(t *testing.T) {
	dir := setupProject(t, false)
	ctx := context.Background()
	writeFiles(t, dir, map[string]string{
		"a.csv":       "1\n",
		"partner.asc": "this is not a public key\n",
	})

	configPath := filepath.Join(dir, ".sealdrop", "config.toml")
	config, err := configs.LoadConfigFrom(configPath)
	require.NoError(t, err)
	config.Keys.PGPPublicKey = "partner.asc"
	require.NoError(t, configs.SaveConfig(configPath, config))

	_, err = StageAdd(ctx, StageAddOptions{All: true})
	require.NoError(t, err)

	ch := newFakeChannel(t)
	open, opens := ch.opener()
	batch, err := Run(ctx, RunOptions{BatchOptions{Opener: open}})

	keyFile := filepath.Join(dir, "partner.asc")
	assert.ErrorIs(t, err, kerrors.ErrKeyInvalid)
	assert.Contains(t, err.Error(), "aborted using key "+keyFile)
	require.NotNil(t, batch)
	assert.Equal(t, keyFile, batch.FatalKey)
	assert.Zero(t, *opens)

	logs, err := Log(ctx, LogOptions{Failures: true})
	require.NoError(t, err)
	assert.Equal(t, audit.EventFatal, logs.Entries[0].Event)
	assert.Equal(t, keyFile, logs.Entries[0].Key)
	assert.Contains(t, logs.Entries[0].Error, keyFile)
}

func TestRunWithoutPrivateKeyIsFatal(t *testing.T) {
	dir := setupProject(t, true)
	ctx := context.Background()
	writeFiles(t, dir, map[string]string{"a.csv": "1\n"})
	require.NoError(t, os.Remove(filepath.Join(dir, "keys", "id_ed25519")))

	_, err := StageAdd(ctx, StageAddOptions{All: true})
	require.NoError(t, err)

	ch := newFakeChannel(t)
	open, opens := ch.opener()
	batch, err := Run(ctx, RunOptions{BatchOptions{Opener: open}})

	keyPath := filepath.Join(dir, "keys", "id_ed25519")
	assert.ErrorIs(t, err, kerrors.ErrKeyUnavailable)
	assert.Contains(t, err.Error(), keyPath)
	require.NotNil(t, batch)
	assert.Empty(t, batch.EncryptionJobs)
	assert.Zero(t, *opens)
	assert.NoDirExists(t, filepath.Join(dir, "encrypted"), "no artifact is written before the key is checked")
}

func TestRunCollidingNamesDeliversFirst(t *testing.T) {
	dir := setupProject(t, true)
	ctx := context.Background()
	writeFiles(t, dir, map[string]string{
		"a.csv":     "TOP\n",
		"sub/a.csv": "NESTED\n",
	})

	res, err := StageAdd(ctx, StageAddOptions{Patterns: []string{"**/*.csv"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "sub/a.csv"}, res.Staged)

	ch := newFakeChannel(t)
	open, _ := ch.opener()
	batch, err := Run(ctx, RunOptions{BatchOptions{Opener: open}})
	require.NoError(t, err)

	require.Len(t, batch.EncryptionJobs, 2)
	assert.Equal(t, StatusSucceeded, batch.EncryptionJobs[0].Status)
	assert.ErrorIs(t, batch.EncryptionJobs[1].Err, kerrors.ErrWriteFailed)
	require.Len(t, batch.TransferJobs, 1)
	assert.Equal(t, []string{"a.csv.pgp"}, ch.uploads)
	assert.Equal(t, "TOP\n", decrypt(t, filepath.Join(dir, "encrypted", "a.csv.pgp")))

	s := batch.Summary()
	assert.Equal(t, 1, s.EncryptFailed)
	assert.Equal(t, 1, s.Verified)
}

func TestEncryptThenUpload(t *testing.T) {
	dir := setupProject(t, true)
	ctx := context.Background()
	writeFiles(t, dir, map[string]string{"a.csv": "1\n", "b.csv": "2\n"})

	_, err := Upload(ctx, UploadOptions{})
	assert.ErrorIs(t, err, kerrors.ErrNoFilesFound, "nothing has been encrypted yet")

	_, err = StageAdd(ctx, StageAddOptions{All: true})
	require.NoError(t, err)

	encrypted, err := Encrypt(ctx, EncryptOptions{})
	require.NoError(t, err)
	assert.Equal(t, StateDone, encrypted.State)
	assert.Len(t, encrypted.Artifacts(), 2)
	assert.Empty(t, encrypted.TransferJobs)

	ch := newFakeChannel(t)
	open, _ := ch.opener()

	uploaded, err := Upload(ctx, UploadOptions{BatchOptions: BatchOptions{Opener: open}, Patterns: []string{"a.csv.pgp"}})
	require.NoError(t, err)
	require.Len(t, uploaded.TransferJobs, 1)
	assert.Equal(t, "/upload/a.csv.pgp", uploaded.TransferJobs[0].RemotePath)

	uploaded, err = Upload(ctx, UploadOptions{BatchOptions: BatchOptions{Opener: open}})
	require.NoError(t, err)
	assert.Len(t, uploaded.TransferJobs, 2)
	assert.Equal(t, []string{"a.csv.pgp", "a.csv.pgp", "b.csv.pgp"}, ch.uploads)
}

func TestKeyCheck(t *testing.T) {
	dir := setupProject(t, true)
	ctx := context.Background()

	res, err := KeyCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, transfer.KeyLoaded, res.State)
	assert.Equal(t, "Loaded Key: "+filepath.Join(dir, "keys", "id_ed25519"), res.Status)
	assert.NoError(t, res.RecipientErr)
	assert.NotEmpty(t, res.RecipientKeyIDs)
	assert.Contains(t, res.RecipientIdentities[0], "partner@example.com")

	require.NoError(t, os.Remove(filepath.Join(dir, "keys", "id_ed25519")))
	res, err = KeyCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, transfer.KeyNotFound, res.State)
	assert.Equal(t, "No key loaded", res.Status)
}

func TestKeyCheckWithoutRecipient(t *testing.T) {
	setupProject(t, false)
	res, err := KeyCheck(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, res.RecipientErr, kerrors.ErrKeyNotConfigured)
}

func TestLogWithoutBatches(t *testing.T) {
	setupProject(t, true)
	_, err := Log(context.Background(), LogOptions{})
	assert.ErrorIs(t, err, kerrors.ErrNoLogsFound)
}

func TestConfigShow(t *testing.T) {
	dir := setupProject(t, true)
	res, err := ConfigShow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sftp.example.com", res.Config.SFTP.Host)
	assert.Equal(t, filepath.Join(dir, ".sealdrop", "logs"), res.LogsDir)
	assert.NoError(t, res.EndpointErr)
}
