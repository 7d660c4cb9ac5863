package main

import (
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/sirf/config"
	"github.com/temoto/sirf/log2"
	"github.com/temoto/sirf/message"
	"github.com/temoto/sirf/receiver"
	"github.com/temoto/sirf/tele"
	"github.com/temoto/sirf/uart"
)

var log = log2.NewStderr(log2.LInfo)

func main() {
	flagConfig := flag.String("config", "sirfd.hcl", "")
	flag.Parse()

	if sdnotify("STATUS=start") {
		// we're under systemd, assume systemd journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	fs, err := config.NewOsFullReader(".")
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	cfg, err := config.ReadConfig(log, fs, *flagConfig)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	if cfg.Log.Debug {
		log.SetLevel(log2.LDebug)
	}

	var tl *tele.Tele
	if cfg.Tele.Enabled {
		if tl, err = tele.New(log, cfg.Tele); err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
		log.SetErrorFunc(tl.Error)
	}

	port, err := uart.Open(cfg.Device.Path, cfg.Device.Baud)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	onMessage := func(m message.Message) {
		log.Debugf("message %s", m)
		if tl != nil {
			_ = tl.Message(m)
		}
	}
	r, err := receiver.New(port, receiver.Options{
		Log:       log,
		ReadLimit: uint16(cfg.Device.ReadLimit),
		OnMessage: onMessage,
	})
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	log.Infof("receiving device=%s baud=%d", port.Path(), port.Baud())
	sdnotify(daemon.SdNotifyReady)

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigch:
		log.Infof("signal=%v stopping", s)
	case <-r.Done():
	}
	sdnotify(daemon.SdNotifyStopping)
	if err = r.Close(); err != nil {
		log.Errorf("receiver close err=%v", err)
	}
	<-r.Done()
	log.Infof("receiver stat=%s frame=%s", r.Stat(), r.FrameStat())
	if tl != nil {
		log.SetErrorFunc(nil)
		tl.Close()
	}
	if err = r.Err(); err != nil && err != receiver.ErrClosed && err != io.EOF {
		log.Fatal(errors.ErrorStack(err))
	}
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
