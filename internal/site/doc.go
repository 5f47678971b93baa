// Package site rebuilds the documentation tree from a notebook source tree.
//
// A build is a fixed sequence of stages run by runStages:
//
//	prepare_output -> copy_assets -> convert_notebooks -> copy_index ->
//	stamp_index -> build_site -> collect_titles
//
// Every stage is timed and classified as success, warning, fatal or canceled
// in the BuildReport. File-system failures are always fatal. Converter and
// site-builder failures are governed by the configured failure policy: under
// "ignore" they become warning issues and the build continues, under
// "strict" the first one aborts the build.
package site
