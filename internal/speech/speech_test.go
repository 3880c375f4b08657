package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocal struct {
	available bool
	voices    []Voice
	err       error

	mu     sync.Mutex
	spoken []string
	voice  *Voice
}

func (f *fakeLocal) Available() bool { return f.available }

func (f *fakeLocal) Voices(context.Context) ([]Voice, error) { return f.voices, nil }

func (f *fakeLocal) Speak(_ context.Context, text string, voice *Voice, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	f.voice = voice
	return f.err
}

func (f *fakeLocal) Cancel() {}

func (f *fakeLocal) said() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

type fakeCloud struct {
	initErr   error
	initDelay time.Duration
	result    Result
	inits     atomic.Int32
	entered   chan Credentials
	gate      chan struct{}

	mu    sync.Mutex
	texts []string
	voice string
}

func (f *fakeCloud) Init(_ context.Context, creds Credentials) error {
	f.inits.Add(1)
	if f.entered != nil {
		f.entered <- creds
	}
	if f.gate != nil {
		<-f.gate
	}
	time.Sleep(f.initDelay)
	return f.initErr
}

func (f *fakeCloud) Synthesize(_ context.Context, text string, _ Credentials, voiceID string) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.voice = voiceID
	return f.result
}

var testCreds = Credentials{Key: "k", Region: "swedencentral"}

func TestSpeakPrefersLocal(t *testing.T) {
	local := &fakeLocal{available: true, voices: []Voice{{Lang: "sv-SE", Name: "Alva"}}}
	cloud := &fakeCloud{}
	d := NewDispatcher(local, cloud, Options{Lang: "sv-SE", CloudVoice: "sv-SE-SofieNeural"})
	d.SetCredentials(testCreds)
	require.NoError(t, d.RefreshVoices(context.Background()))

	require.NoError(t, d.Speak(context.Background(), "hej"))
	d.Wait()

	assert.Equal(t, []string{"hej"}, local.said())
	require.NotNil(t, local.voice)
	assert.Equal(t, "Alva", local.voice.Name)
	assert.Empty(t, cloud.texts)
	assert.Equal(t, KindLocal, d.Backend().Kind())
}

func TestSpeakEmptyTextIsNoop(t *testing.T) {
	local := &fakeLocal{available: true}
	d := NewDispatcher(local, nil, Options{Lang: "sv-SE"})

	require.NoError(t, d.Speak(context.Background(), "   "))
	assert.Empty(t, local.said())
}

func TestSpeakFallsBackToCloud(t *testing.T) {
	var results []Result
	var mu sync.Mutex
	cloud := &fakeCloud{}
	d := NewDispatcher(nil, cloud, Options{
		Lang:       "sv-SE",
		CloudVoice: "sv-SE-SofieNeural",
		OnResult: func(r Result) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		},
	})
	d.SetCredentials(testCreds)
	assert.False(t, d.SpeechEnabled())

	require.NoError(t, d.Speak(context.Background(), "tack"))
	d.Wait()

	assert.Equal(t, []string{"tack"}, cloud.texts)
	assert.Equal(t, "sv-SE-SofieNeural", cloud.voice)
	require.Len(t, results, 1)
	assert.True(t, results[0].OK())
	assert.True(t, d.Ready())
	assert.True(t, d.SpeechEnabled())

	backend := d.Backend()
	creds, ok := backend.Credentials()
	require.True(t, ok)
	assert.Equal(t, testCreds, creds)
}

func TestSpeakCloudFailureFallsBackToLocal(t *testing.T) {
	local := &fakeLocal{available: true, err: errors.New("boom")}
	cloud := &fakeCloud{result: Result{Err: errors.New("401")}}
	d := NewDispatcher(local, cloud, Options{Lang: "sv-SE", CloudVoice: "v"})
	d.SetCredentials(testCreds)

	require.NoError(t, d.Speak(context.Background(), "hej"))
	d.Wait()

	// Local was already attempted; the failed cloud result does not retry it.
	assert.Equal(t, []string{"hej"}, local.said())
	assert.Equal(t, []string{"hej"}, cloud.texts)
}

func TestSpeakUnavailableNotifies(t *testing.T) {
	var notices []string
	d := NewDispatcher(&fakeLocal{}, nil, Options{
		Lang:     "sv-SE",
		Notifier: NotifierFunc(func(_, msg string) { notices = append(notices, msg) }),
	})

	err := d.Speak(context.Background(), "hej")
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "No speech engine available")
	assert.Equal(t, KindNone, d.Backend().Kind())
}

func TestSpeakCloudInitFailureNotifies(t *testing.T) {
	var notified atomic.Int32
	cloud := &fakeCloud{initErr: errors.New("bad key")}
	d := NewDispatcher(nil, cloud, Options{
		Notifier: NotifierFunc(func(string, string) { notified.Add(1) }),
	})
	d.SetCredentials(testCreds)

	err := d.Speak(context.Background(), "hej")
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
	assert.Equal(t, int32(1), notified.Load())
	assert.False(t, d.Ready())
}

func TestEnsureCloudSharesInit(t *testing.T) {
	cloud := &fakeCloud{initDelay: 50 * time.Millisecond}
	d := NewDispatcher(nil, cloud, Options{})
	d.SetCredentials(testCreds)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.EnsureCloud(context.Background()))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), cloud.inits.Load())

	require.NoError(t, d.EnsureCloud(context.Background()))
	assert.Equal(t, int32(1), cloud.inits.Load())

	d.SetCredentials(Credentials{Key: "other", Region: "westeurope"})
	assert.False(t, d.Ready())
	require.NoError(t, d.EnsureCloud(context.Background()))
	assert.Equal(t, int32(2), cloud.inits.Load())
}

func TestEnsureCloudCredentialChangeDuringInit(t *testing.T) {
	cloud := &fakeCloud{entered: make(chan Credentials, 2), gate: make(chan struct{})}
	d := NewDispatcher(nil, cloud, Options{})
	d.SetCredentials(testCreds)

	first := make(chan error, 1)
	go func() { first <- d.EnsureCloud(context.Background()) }()
	require.Equal(t, testCreds, <-cloud.entered)

	updated := Credentials{Key: "other", Region: "westeurope"}
	d.SetCredentials(updated)
	second := make(chan error, 1)
	go func() { second <- d.EnsureCloud(context.Background()) }()

	select {
	case got := <-cloud.entered:
		assert.Equal(t, updated, got)
	case <-time.After(2 * time.Second):
		close(cloud.gate)
		t.Fatal("new credentials joined the stale initialization")
	}
	close(cloud.gate)

	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.True(t, d.Ready())
	assert.True(t, d.SpeechEnabled())
	assert.Equal(t, int32(2), cloud.inits.Load())
}

func TestEnsureCloudWithoutCredentials(t *testing.T) {
	d := NewDispatcher(nil, &fakeCloud{}, Options{})
	require.ErrorIs(t, d.EnsureCloud(context.Background()), ErrNotConfigured)

	d.SetCredentials(Credentials{Key: "k"})
	require.ErrorIs(t, d.EnsureCloud(context.Background()), ErrNotConfigured)
}

func TestPickVoice(t *testing.T) {
	voices := []Voice{
		{Lang: "en-US", Name: "Samantha"},
		{Lang: "sv", Name: "Swedish"},
		{Lang: "sv_SE", Name: "Alva"},
		{Lang: "sv-FI", Name: "Sofie"},
	}

	tests := []struct {
		name      string
		lang      string
		preferred string
		want      string
	}{
		{name: "exact", lang: "sv-SE", want: "Alva"},
		{name: "preferred", lang: "sv-XX", preferred: "sofie", want: "Sofie"},
		{name: "prefix", lang: "sv-XX", want: "Swedish"},
		{name: "other", lang: "en-GB", want: "Samantha"},
		{name: "none", lang: "de-DE", want: ""},
		{name: "blank", lang: "", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PickVoice(voices, tc.lang, tc.preferred)
			if tc.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.Name)
		})
	}
}

func TestParseVoiceLists(t *testing.T) {
	espeak := "Pty Language       Age/Gender VoiceName          File                 Other Languages\n" +
		" 5  sv              --/M      Swedish            gmw/sv\n" +
		" 5  en-us           --/M      English_(America)  gmw/en-US\n"
	assert.Equal(t, []Voice{
		{Lang: "sv", Name: "Swedish"},
		{Lang: "en-us", Name: "English_(America)"},
	}, parseEspeakVoices(espeak))

	say := "Alva                sv_SE    # Hej! Jag heter Alva.\n" +
		"Bad News            en_US    # The light you see\n"
	assert.Equal(t, []Voice{
		{Lang: "sv_SE", Name: "Alva"},
		{Lang: "en_US", Name: "Bad News"},
	}, parseSayVoices(say))

	spd := "NAME                 LANGUAGE  VARIANT\nSwedish              sv        none\n"
	assert.Equal(t, []Voice{{Lang: "sv", Name: "Swedish"}}, parseSpdVoices(spd))
}

func TestBuildArgs(t *testing.T) {
	voice := &Voice{Lang: "sv", Name: "Swedish"}

	assert.Equal(t, []string{"-s", "158", "-v", "Swedish", "--", "hej"}, buildArgs("espeak-ng", "hej", voice, "sv-SE", 0.9))
	assert.Equal(t, []string{"-s", "175", "-v", "sv-SE", "--", "hej"}, buildArgs("espeak", "hej", nil, "sv-SE", 1))
	assert.Equal(t, []string{"-r", "158", "--", "hej"}, buildArgs("say", "hej", nil, "sv-SE", 0.9))
	assert.Equal(t, []string{"-r", "-10", "-l", "sv", "--", "hej"}, buildArgs("spd-say", "hej", nil, "sv-SE", 0.9))
	assert.Equal(t, []string{"hej"}, buildArgs("custom-tts", "hej", voice, "sv-SE", 1))
}

func TestCommandSynthMissing(t *testing.T) {
	s := NewCommandSynth("definitely-not-a-synth-command", 1)
	assert.False(t, s.Available())
	require.ErrorIs(t, s.Speak(context.Background(), "hej", nil, "sv"), ErrCapabilityUnavailable)
	_, err := s.Voices(context.Background())
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
}

type recordingPlayer struct {
	audio []byte
	err   error
}

func (p *recordingPlayer) Play(_ context.Context, audio []byte) error {
	p.audio = audio
	return p.err
}

func TestAzureSynthesize(t *testing.T) {
	var tokenCalls atomic.Int32
	var ssml string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/swedencentral/token":
			tokenCalls.Add(1)
			if r.Header.Get("Ocp-Apim-Subscription-Key") != "k" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, "tok")
		case "/swedencentral/synth":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			body, _ := io.ReadAll(r.Body)
			ssml = string(body)
			assert.Equal(t, "application/ssml+xml", r.Header.Get("Content-Type"))
			_, _ = io.WriteString(w, "RIFFdata")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	player := &recordingPlayer{}
	a := NewAzure(player, 0.9)
	a.TokenURL = srv.URL + "/{region}/token"
	a.SynthURL = srv.URL + "/{region}/synth"

	require.NoError(t, a.Init(context.Background(), testCreds))
	res := a.Synthesize(context.Background(), "fika & <kaka>", testCreds, "sv-SE-SofieNeural")
	require.True(t, res.OK(), "%v", res.Err)

	assert.Equal(t, []byte("RIFFdata"), player.audio)
	assert.Equal(t, int32(1), tokenCalls.Load())
	assert.Contains(t, ssml, "xml:lang='sv-SE'")
	assert.Contains(t, ssml, "<voice name='sv-SE-SofieNeural'>")
	assert.Contains(t, ssml, "<prosody rate='0.9'>")
	assert.Contains(t, ssml, "fika &amp; &lt;kaka&gt;")

	bad := Credentials{Key: "wrong", Region: "swedencentral"}
	err := a.Init(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"))
}

func TestAzureSynthesizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/token") {
			_, _ = io.WriteString(w, "tok")
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "voice not found")
	}))
	defer srv.Close()

	player := &recordingPlayer{}
	a := NewAzure(player, 1)
	a.TokenURL = srv.URL + "/{region}/token"
	a.SynthURL = srv.URL + "/{region}/synth"

	res := a.Synthesize(context.Background(), "hej", testCreds, "sv-SE-Nobody")
	require.False(t, res.OK())
	assert.Equal(t, "voice not found", res.Detail)
	assert.Nil(t, player.audio)
}

func TestBackendVariants(t *testing.T) {
	_, ok := None().Credentials()
	assert.False(t, ok)
	_, ok = Local().Credentials()
	assert.False(t, ok)
	assert.Equal(t, "cloud", Cloud(testCreds).Kind().String())
	assert.False(t, Credentials{Key: " ", Region: "x"}.Configured())
}

func TestMultiNotifier(t *testing.T) {
	var got []string
	m := Multi{
		NotifierFunc(func(title, msg string) { got = append(got, title+":"+msg) }),
		nil,
		NewDesktop(false),
		NopNotifier{},
	}
	m.Notify("Speech", "hello")
	assert.Equal(t, []string{"Speech:hello"}, got)
}
