// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package configs

import "fmt"

// PostgresConfig describes the connection to the campaign/history database.
type PostgresConfig struct {
	Host               string             `mapstructure:"host" validate:"required"`
	Port               int                `mapstructure:"port" validate:"required"`
	DbName             string             `mapstructure:"db_name" validate:"required"`
	Auth               PostgresAuthConfig `mapstructure:"auth" validate:"required"`
	SslMode            string             `mapstructure:"ssl_mode"`
	MaxOpenConnection  int                `mapstructure:"max_open_connection"`
	MaxIdealConnection int                `mapstructure:"max_ideal_connection"`
}

type PostgresAuthConfig struct {
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

// DSN renders the gorm/pgx connection string.
func (c PostgresConfig) DSN() string {
	sslMode := c.SslMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Auth.User, c.Auth.Password, c.DbName, sslMode)
}

// RedisConfig describes the optional redis used for status fan-out.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a redis endpoint is configured at all; the dialer
// runs fine without one.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// TelephonyConfig selects and configures the outbound call provider.
type TelephonyConfig struct {
	// Provider is one of "gateway", "twilio" or "noop".
	Provider string `mapstructure:"provider" validate:"required,oneof=gateway twilio noop"`

	// Gateway provider: an Asterisk/Telxio style HTTP originate endpoint.
	GatewayUrl   string `mapstructure:"gateway_url"`
	GatewayToken string `mapstructure:"gateway_token"`

	// Twilio provider credentials. TwilioVoiceUrl is the TwiML webhook the
	// placed call is connected to.
	TwilioAccountSid string `mapstructure:"twilio_account_sid"`
	TwilioAuthToken  string `mapstructure:"twilio_auth_token"`
	TwilioFromNumber string `mapstructure:"twilio_from_number"`
	TwilioVoiceUrl   string `mapstructure:"twilio_voice_url"`
}

// DialerConfig holds the session-controller policies.
type DialerConfig struct {
	// LeadsFile is the CSV export the lead source reads at startup.
	LeadsFile string `mapstructure:"leads_file" validate:"required"`

	// ConnectImmediately skips the dialing stage and commits new calls
	// straight to running. Used with gateways that only report answered calls.
	ConnectImmediately bool `mapstructure:"connect_immediately"`

	// StatusChannel is the redis channel status snapshots are published on.
	StatusChannel string `mapstructure:"status_channel"`
}
