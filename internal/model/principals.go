package model

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const tokenTimestampLayout = "2006-01-02T15:04:05-0700"

// UserPrincipals is the subset of the user principals document needed to
// log in to the streamer.
type UserPrincipals struct {
	UserID       string             `json:"userId"`
	StreamerInfo StreamerInfo       `json:"streamerInfo"`
	Accounts     []PrincipalAccount `json:"accounts"`
}

type StreamerInfo struct {
	StreamerSocketURL string `json:"streamerSocketUrl"`
	Token             string `json:"token"`
	TokenTimestamp    string `json:"tokenTimestamp"`
	UserGroup         string `json:"userGroup"`
	AccessLevel       string `json:"accessLevel"`
	ACL               string `json:"acl"`
	AppID             string `json:"appId"`
}

type PrincipalAccount struct {
	AccountID         string `json:"accountId"`
	Company           string `json:"company"`
	Segment           string `json:"segment"`
	AccountCdDomainID string `json:"accountCdDomainId"`
}

// SocketURL is the websocket endpoint of the streamer.
func (p *UserPrincipals) SocketURL() string {
	return "wss://" + p.StreamerInfo.StreamerSocketURL + "/ws"
}

// PrimaryAccount returns the first account, which the streamer login uses.
func (p *UserPrincipals) PrimaryAccount() (PrincipalAccount, error) {
	if len(p.Accounts) == 0 {
		return PrincipalAccount{}, fmt.Errorf("user principals: no accounts")
	}
	return p.Accounts[0], nil
}

// Credentials builds the credential parameters sent with the streamer
// ADMIN/LOGIN request.
func (p *UserPrincipals) Credentials() (url.Values, error) {
	acct, err := p.PrimaryAccount()
	if err != nil {
		return nil, err
	}
	ts, err := time.Parse(tokenTimestampLayout, p.StreamerInfo.TokenTimestamp)
	if err != nil {
		return nil, fmt.Errorf("user principals: token timestamp: %w", err)
	}

	v := url.Values{}
	v.Set("userid", acct.AccountID)
	v.Set("token", p.StreamerInfo.Token)
	v.Set("company", acct.Company)
	v.Set("segment", acct.Segment)
	v.Set("cddomain", acct.AccountCdDomainID)
	v.Set("usergroup", p.StreamerInfo.UserGroup)
	v.Set("accesslevel", p.StreamerInfo.AccessLevel)
	v.Set("authorized", "Y")
	v.Set("timestamp", strconv.FormatInt(ts.UnixMilli(), 10))
	v.Set("appid", p.StreamerInfo.AppID)
	v.Set("acl", p.StreamerInfo.ACL)
	return v, nil
}
