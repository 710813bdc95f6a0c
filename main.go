package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/netip"
	"os"

	"github.com/google/gopacket/layers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"gopf/common"
	"gopf/pf"
	"gopf/pfdev"
)

type RuleConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Op      string `yaml:"op"`
	Port    string `yaml:"port"`
	PortEnd string `yaml:"portEnd"`
	Proto   string `yaml:"proto"`
}

type LookupConfig struct {
	Name      string `yaml:"name"`
	Proto     string `yaml:"proto"`
	Src       string `yaml:"src"`
	Dst       string `yaml:"dst"`
	Direction string `yaml:"direction"`

	// XNU proto_variant, only meaningful for GRE and ESP lookups
	ProtoVariant uint8 `yaml:"protoVariant"`
}

type Config struct {
	Device  string         `yaml:"device"`
	Rules   []RuleConfig   `yaml:"rules"`
	Lookups []LookupConfig `yaml:"lookups"`
}

var ErrBadConfig = errors.New("bad config")

func main() {
	loglvlStr := flag.String("v", "info", "debug level")
	configStr := flag.String("c", "config.yaml", "config location")
	submit := flag.Bool("submit", false, "send lookups to the pf device")
	flag.Parse()
	loglvl, err := zerolog.ParseLevel(*loglvlStr)
	if err != nil {
		panic("Failed to parse log level, try debug")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(loglvl).With().Timestamp().Logger().With().Caller().Logger()

	f, err := os.Open(*configStr)
	if err != nil {
		log.Fatal().Err(err).Msgf("Failed to open config %s", *configStr)
	}
	defer f.Close()
	cfg, err := loadConfig(f)
	if err != nil {
		log.Fatal().Err(err).Msgf("Failed to parse config '%s'", *configStr)
	}
	log.Debug().Msgf("Config: %+v", cfg)

	for _, rc := range cfg.Rules {
		addr, err := buildRuleAddress(rc)
		if err != nil {
			log.Fatal().Err(err).Msgf("Invalid rule %s", rc.Name)
		}
		if ifname := addr.Interface(); ifname != "" {
			if err := common.InterfaceExists(ifname); err != nil {
				log.Warn().Err(err).Msgf("Rule %s references interface %s", rc.Name, ifname)
			}
		}
		log.Info().Str("rule", rc.Name).Str("image", hex.EncodeToString(addr.Bytes())).Msg(addr.String())
	}

	var transport pf.Transport
	if *submit {
		dev, err := pfdev.Open(cfg.Device)
		if err != nil {
			log.Fatal().Err(err).Msgf("Failed to open %s", cfg.Device)
		}
		defer dev.Close()
		transport = dev
	}

	ctx := context.Background()
	for _, lc := range cfg.Lookups {
		nl, err := buildLookup(lc)
		if err != nil {
			log.Fatal().Err(err).Msgf("Invalid lookup %s", lc.Name)
		}
		if transport == nil {
			log.Info().Str("lookup", lc.Name).Str("image", hex.EncodeToString(nl.Bytes())).Msg(nl.String())
			continue
		}
		res, err := nl.Submit(ctx, transport)
		if err != nil {
			log.Error().Err(err).Msgf("Lookup %s failed", lc.Name)
			continue
		}
		log.Info().Str("lookup", lc.Name).Msgf("%s redirected to %s", nl, res.AddrPort())
	}
}

func loadConfig(r io.Reader) (*Config, error) {
	cfg := Config{Device: pfdev.DefaultPath}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

func buildRuleAddress(rc RuleConfig) (*pf.RuleAddress, error) {
	addr, err := pf.ParseAddress(rc.Address)
	if err != nil {
		return nil, err
	}
	if rc.Op == "" && rc.Port == "" {
		return addr, nil
	}
	op := pf.PortOpEqual
	if rc.Op != "" {
		if op, err = pf.ParsePortOp(rc.Op); err != nil {
			return nil, err
		}
	}
	lo, hi := uint16(0), uint16(0)
	if op.Slots() > 0 {
		if lo, err = common.LookupPort(rc.Port, rc.Proto); err != nil {
			return nil, err
		}
	}
	if op.Slots() > 1 {
		if rc.PortEnd == "" {
			return nil, fmt.Errorf("operator %s needs portEnd: %w", op, ErrBadConfig)
		}
		if hi, err = common.LookupPort(rc.PortEnd, rc.Proto); err != nil {
			return nil, err
		}
	}
	addr.SetPortRange(op, lo, hi)
	return addr, nil
}

func buildLookup(lc LookupConfig) (*pf.NatLookup, error) {
	var proto layers.IPProtocol
	switch lc.Proto {
	case "", "tcp":
		proto = layers.IPProtocolTCP
	case "udp":
		proto = layers.IPProtocolUDP
	default:
		num, err := common.LookupProto(lc.Proto)
		if err != nil {
			return nil, err
		}
		proto = layers.IPProtocol(num)
	}
	src, err := netip.ParseAddrPort(lc.Src)
	if err != nil {
		return nil, fmt.Errorf("src: %w", err)
	}
	dst, err := netip.ParseAddrPort(lc.Dst)
	if err != nil {
		return nil, fmt.Errorf("dst: %w", err)
	}
	nl, err := pf.LookupFromAddrs(proto, src, dst)
	if err != nil {
		return nil, err
	}
	switch lc.Direction {
	case "", "out":
	case "in":
		nl.SetDirection(pf.In)
	case "inout":
		nl.SetDirection(pf.InOut)
	default:
		return nil, fmt.Errorf("direction %q: %w", lc.Direction, ErrBadConfig)
	}
	if lc.ProtoVariant != 0 {
		nl.SetProtoVariant(lc.ProtoVariant)
	}
	return nl, nil
}
